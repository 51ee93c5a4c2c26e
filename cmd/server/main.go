package main

import "github.com/citybeat-app/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
