package mailer

import (
	"context"
	"fmt"
	"net/http"

	"coursehub/logger"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
	log    *logger.Logger
}

var _ Mailer = (*SendGridMailer)(nil)

func NewSendGridMailer(apiKey, fromName, fromEmail string, baseLog *logger.Logger) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromEmail),
		log:    baseLog.With("mailer", "sendgrid"),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return errNoRecipient
	}
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	email := sgmail.NewSingleEmail(m.from, msg.Subject, to, msg.Text, msg.HTML)

	res, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	m.log.Debug("email sent", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}

// New picks SendGrid when an API key is configured, the console otherwise.
func New(apiKey, fromName, fromEmail string, log *logger.Logger) Mailer {
	if apiKey == "" {
		return NewConsoleMailer(log)
	}
	return NewSendGridMailer(apiKey, fromName, fromEmail, log)
}
