package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Mailer sends transactional mail through Resend. Without an API key it
// runs in dev mode and logs the links it would have mailed.
type Mailer struct {
	client    *resend.Client
	fromEmail string
	clientURL string
}

func NewMailer(apiKey, fromEmail, clientURL string) *Mailer {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}

	return &Mailer{
		client:    client,
		fromEmail: fromEmail,
		clientURL: clientURL,
	}
}

func (m *Mailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", m.clientURL, token)

	html := fmt.Sprintf(`<p>Please click the link below to verify your email:</p>
<a href="%s">%s</a>`, verifyURL, verifyURL)

	return m.send(ctx, "verification", to, "Verify your Zero Scroll account", html, verifyURL)
}

func (m *Mailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", m.clientURL, token)

	html := fmt.Sprintf(`<p>Please click the link below to reset your password:</p>
<a href="%s">%s</a>`, resetURL, resetURL)

	return m.send(ctx, "password_reset", to, "Reset your Zero Scroll password", html, resetURL)
}

func (m *Mailer) send(ctx context.Context, kind, to, subject, html, url string) error {
	if m.client == nil {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "url", url)
		return nil
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.fromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})

	if err != nil {
		return fmt.Errorf("sending %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to, "id", sent.Id)
	return nil
}
