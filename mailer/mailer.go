package mailer

import (
	"context"
	"errors"
	"sync"

	"coursehub/logger"
)

// Message is a single outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var errNoRecipient = errors.New("message has no recipient")

// ConsoleMailer logs messages instead of delivering them. Used when no
// SendGrid key is configured.
type ConsoleMailer struct {
	log *logger.Logger
}

func NewConsoleMailer(baseLog *logger.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: baseLog.With("mailer", "console")}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return errNoRecipient
	}
	m.log.Info("email", "to", msg.ToEmail, "subject", msg.Subject, "text", msg.Text)
	return nil
}

// Recorder keeps sent messages in memory.
type Recorder struct {
	mu   sync.Mutex
	Sent []Message
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return errNoRecipient
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, msg)
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.Sent))
	copy(out, r.Sent)
	return out
}
