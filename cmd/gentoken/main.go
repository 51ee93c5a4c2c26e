// Command gentoken mints a bearer token for local development and testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/citybeat-app/server/internal/auth"
)

func main() {
	var (
		subject = flag.String("subject", "", "account ULID to embed as the token subject (required)")
		admin   = flag.Bool("admin", false, "mint an admin token")
		expiry  = flag.Duration("expiry", 24*time.Hour, "token lifetime")
		issuer  = flag.String("issuer", "citybeat", "token issuer")
	)
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}
	if *subject == "" {
		fmt.Fprintln(os.Stderr, "-subject is required")
		os.Exit(1)
	}

	manager := auth.NewJWTManager(secret, *expiry, *issuer)
	token, err := manager.Generate(*subject, *admin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
