package mailer

import (
	"context"
	"log"
)

// Mailer delivers the three notification kinds produced by the auth flows.
// The engine itself never calls a Mailer directly; only the email worker
// does, after draining the queue.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
	SendWelcomeEmail(ctx context.Context, email, name string) error
}

// ConsoleMailer writes emails to the process log. Used in dev and tests
// instead of a real SMTP transport.
type ConsoleMailer struct{}

func NewConsoleMailer() *ConsoleMailer {
	return &ConsoleMailer{}
}

func (m *ConsoleMailer) SendVerificationEmail(_ context.Context, email, token string) error {
	log.Printf("[mail] verification email to=%s token=%s", email, token)
	return nil
}

func (m *ConsoleMailer) SendPasswordResetEmail(_ context.Context, email, token string) error {
	log.Printf("[mail] password reset email to=%s token=%s", email, token)
	return nil
}

func (m *ConsoleMailer) SendWelcomeEmail(_ context.Context, email, name string) error {
	log.Printf("[mail] welcome email to=%s name=%s", email, name)
	return nil
}
