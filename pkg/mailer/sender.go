package mailer

import "context"

// Sender delivers a single plain-text email through a provider.
type Sender interface {
	Send(ctx context.Context, to, subject, text string) error
}
