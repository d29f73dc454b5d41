package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

// Message is one outgoing email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer delivers a rendered message and returns the provider's id for it.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ResendMailer sends through the Resend API.
type ResendMailer struct {
	client *resend.Client
}

// NewResendMailer builds a mailer for apiKey. An empty baseURL uses the
// public Resend endpoint.
func NewResendMailer(apiKey, baseURL string) (*ResendMailer, error) {
	client := resend.NewClient(apiKey)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse resend url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendMailer{client: client}, nil
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}

// DefaultLogHistory is how many messages a LogMailer keeps when Limit is
// not set.
const DefaultLogHistory = 100

// LogMailer writes messages to the log instead of sending them. It keeps
// the last Limit messages for inspection.
type LogMailer struct {
	Limit int

	mu   sync.Mutex
	sent []Message
}

func (m *LogMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := "log-" + uuid.NewString()
	slog.Info("==========================================")
	slog.Info("EMAIL (not sent, no provider configured)", "id", id, "to", strings.Join(msg.To, ", "), "subject", msg.Subject)
	slog.Debug("EMAIL body", "id", id, "html", msg.HTML)
	slog.Info("==========================================")

	limit := m.Limit
	if limit <= 0 {
		limit = DefaultLogHistory
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	if over := len(m.sent) - limit; over > 0 {
		m.sent = append(m.sent[:0:0], m.sent[over:]...)
	}
	m.mu.Unlock()
	return id, nil
}

// Sent returns a copy of the kept messages, oldest first.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
