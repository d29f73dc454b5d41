// Package notify renders and sends the transactional emails: contact form
// replies, order status updates and the onboarding welcome.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/plan"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownEmailType = errors.New("unknown email type")
	ErrNotFound         = errors.New("profile not found")
)

// ProfileStore looks up the recipient of account emails.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

type Config struct {
	From         string
	AdminAddress string
	ReplyTo      string
	BaseURL      string
}

type Notifier struct {
	cfg       Config
	mailer    Mailer
	templates *TemplateCache
	profiles  ProfileStore
	now       func() time.Time
}

func New(cfg Config, mailer Mailer, profiles ProfileStore) (*Notifier, error) {
	templates := NewTemplateCache()
	if err := templates.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Notifier{
		cfg:       cfg,
		mailer:    mailer,
		templates: templates,
		profiles:  profiles,
		now:       time.Now,
	}, nil
}

func (n *Notifier) send(ctx context.Context, tmpl, to, replyTo, subject string, data any) (string, error) {
	html, err := n.templates.Render(tmpl, data)
	if err != nil {
		return "", err
	}
	if replyTo == "" {
		replyTo = n.cfg.ReplyTo
	}
	id, err := n.mailer.Send(ctx, Message{
		From:    n.cfg.From,
		To:      []string{to},
		ReplyTo: replyTo,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		slog.Error("Failed to send email", "template", tmpl, "to", to, "error", err)
		return "", fmt.Errorf("send %s: %w", tmpl, err)
	}
	slog.Info("Email sent", "template", tmpl, "to", to, "id", id)
	return id, nil
}

type welcomeView struct {
	Name       string
	ProfileURL string
	Plan       string
	Unlimited  bool
	MaxLinks   int
}

// OnboardingComplete sends the welcome email for a freshly published
// profile.
func (n *Notifier) OnboardingComplete(ctx context.Context, p *models.Profile) error {
	if p.Email == "" {
		return fmt.Errorf("%w: profile %s has no email address", ErrInvalidInput, p.ID)
	}
	policy := plan.For(p.PlanType)
	view := welcomeView{
		Name:       p.DisplayName(),
		ProfileURL: n.cfg.BaseURL + "/" + p.Slug,
		Plan:       policy.Plan,
		Unlimited:  policy.Unbounded(),
		MaxLinks:   policy.MaxLinks,
	}
	_, err := n.send(ctx, "onboarding_complete", p.Email, "", "Welcome to Scan2Tap, your profile is live", view)
	return err
}
