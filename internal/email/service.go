package email

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/citybeat-app/server/internal/config"
	"github.com/citybeat-app/server/internal/domain/accounts"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// AccountLookup resolves a submitter ULID to an account for addressing.
type AccountLookup interface {
	GetByULID(ctx context.Context, ulid string) (*accounts.Account, error)
}

// Service sends review-outcome notifications via Resend. With no API key
// configured it degrades to a no-op and the server runs without email.
// Sends are best-effort: failures are logged, never surfaced to the caller.
type Service struct {
	client *resend.Client
	from   string
	lookup AccountLookup
	logger zerolog.Logger
}

func NewService(cfg config.EmailConfig, lookup AccountLookup, logger zerolog.Logger) *Service {
	service := &Service{
		from:   cfg.From,
		lookup: lookup,
		logger: logger.With().Str("component", "email").Logger(),
	}
	if cfg.ResendAPIKey != "" {
		service.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return service
}

// Enabled reports whether a Resend client is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil
}

func (s *Service) SubmissionApproved(ctx context.Context, submitterULID, name string) {
	subject := fmt.Sprintf("Your submission %q is live", name)
	body := fmt.Sprintf(
		"<p>Your submission <strong>%s</strong> was approved and is now published on CityBeat.</p>",
		html.EscapeString(name),
	)
	s.send(ctx, submitterULID, subject, body)
}

func (s *Service) SubmissionRejected(ctx context.Context, submitterULID, name, reason string) {
	subject := fmt.Sprintf("Your submission %q was not approved", name)
	body := fmt.Sprintf(
		"<p>Your submission <strong>%s</strong> was reviewed and not approved.</p>",
		html.EscapeString(name),
	)
	if reason != "" {
		body += fmt.Sprintf("<p>Reviewer note: %s</p>", html.EscapeString(reason))
	}
	s.send(ctx, submitterULID, subject, body)
}

func (s *Service) send(ctx context.Context, submitterULID, subject, htmlBody string) {
	if !s.Enabled() {
		return
	}

	account, err := s.lookup.GetByULID(ctx, submitterULID)
	if err != nil {
		s.logger.Warn().Err(err).Str("account", submitterULID).Msg("notification address lookup failed")
		return
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{account.Email},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return
		}
		s.logger.Warn().Err(err).Str("account", submitterULID).Msg("notification send failed")
		return
	}

	s.logger.Info().Str("email_id", sent.Id).Str("account", submitterULID).Msg("notification sent")
}
