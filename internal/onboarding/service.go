package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/payment"
	"github.com/richmondazadze/scantotap-sub001/internal/profile"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

// Store is the persistence the wizard needs.
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	GetDraft(ctx context.Context, userID string) (*store.Draft, error)
	SaveDraft(ctx context.Context, d *store.Draft) error
	CompleteOnboarding(ctx context.Context, p *models.Profile) error
}

// Notifier sends the welcome email once a profile is published.
type Notifier interface {
	OnboardingComplete(ctx context.Context, p *models.Profile) error
}

const notifyTimeout = 30 * time.Second

type Service struct {
	store    Store
	payments payment.Authorizer
	notifier Notifier
}

func NewService(s Store, payments payment.Authorizer, notifier Notifier) *Service {
	return &Service{store: s, payments: payments, notifier: notifier}
}

// Load resumes the user's wizard from its last checkpoint, or starts a new
// one on step 1.
func (s *Service) Load(ctx context.Context, userID string) (*Wizard, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, profile.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.OnboardingComplete {
		return nil, ErrAlreadyOnboarded
	}

	w := &Wizard{UserID: userID, Step: FirstStep, Draft: newDraft(), svc: s}
	saved, err := s.store.GetDraft(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return w, nil
	case err != nil:
		return nil, fmt.Errorf("load draft: %w", err)
	}

	d, err := decodeDraft(saved.Data)
	if err != nil {
		slog.Warn("Discarding unreadable onboarding draft", "user_id", userID, "error", err)
		return w, nil
	}
	w.Draft = d
	if saved.Step >= FirstStep && saved.Step <= LastStep {
		w.Step = saved.Step
	}
	return w, nil
}

func (s *Service) checkpoint(ctx context.Context, userID string, step int, d Draft) error {
	data, err := d.encode()
	if err != nil {
		return err
	}
	if err := s.store.SaveDraft(ctx, &store.Draft{UserID: userID, Step: step, Data: data}); err != nil {
		slog.Error("Failed to checkpoint onboarding draft", "user_id", userID, "step", step, "error", err)
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *Service) checkUsername(ctx context.Context, username, userID string) error {
	if err := profile.ValidateSlug(username); err != nil {
		return err
	}
	taken, err := s.store.SlugTaken(ctx, username, userID)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: %q", ErrUsernameTaken, username)
	}
	return nil
}

// publish writes the finished draft to the profile in one update and sends
// the welcome email in the background.
func (s *Service) publish(ctx context.Context, userID string, d Draft, links models.Links) (*models.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, profile.ErrNotFound
		}
		return nil, err
	}

	p.Name = d.FullName
	p.Slug = d.Username
	p.Title = d.Title
	p.Bio = d.Bio
	p.AvatarURL = d.AvatarURL
	p.Links = links
	p.PlanType = d.PlanType
	p.BillingCycle = d.BillingCycle
	p.PaymentReference = d.PaymentReference
	p.SubscriptionStatus = models.SubscriptionActive

	if err := s.store.CompleteOnboarding(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: %q", ErrUsernameTaken, d.Username)
		}
		slog.Error("Failed to complete onboarding", "user_id", userID, "error", err)
		return nil, fmt.Errorf("complete onboarding: %w", err)
	}
	slog.Info("Onboarding complete", "user_id", userID, "slug", p.Slug, "plan", p.PlanType, "links", len(p.Links))

	if s.notifier != nil {
		welcome := *p
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
			defer cancel()
			if err := s.notifier.OnboardingComplete(ctx, &welcome); err != nil {
				slog.Error("Failed to send onboarding email", "user_id", userID, "error", err)
			}
		}()
	}
	return p, nil
}
