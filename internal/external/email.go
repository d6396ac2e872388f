package external

import (
	"context"

	"github.com/rs/zerolog"
)

// EmailSender dispatches notifications. Callers treat sends as
// fire-and-forget: a failure is logged by the caller and never fails
// the triggering domain action.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogEmailSender writes outbound mail to the log instead of an SMTP
// relay. Used in development and tests.
type LogEmailSender struct {
	Log zerolog.Logger
}

func (s *LogEmailSender) Send(_ context.Context, to, subject, _ string) error {
	s.Log.Info().Str("to", to).Str("subject", subject).Msg("email dispatched")
	return nil
}
