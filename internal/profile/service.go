package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/richmondazadze/scantotap-sub001/internal/media"
	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/plan"
	"github.com/richmondazadze/scantotap-sub001/internal/platform"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

// Store is the persistence the profile service needs.
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileBySlug(ctx context.Context, slug string) (*models.Profile, error)
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	SaveProfile(ctx context.Context, p *models.Profile) error
	UpdateVisibility(ctx context.Context, id string, v store.Visibility) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
}

type Service struct {
	store    Store
	uploader media.Uploader
}

func NewService(s Store, uploader media.Uploader) *Service {
	return &Service{store: s, uploader: uploader}
}

func (s *Service) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Profile, error) {
	p, err := s.store.GetProfileBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// Editor loads the user's profile into a fresh editor.
func (s *Service) Editor(ctx context.Context, userID string) (*Editor, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewEditor(p, s.uploader), nil
}

// CheckAvailability validates slug and reports ErrUsernameTaken when a
// profile other than excludeID already uses it (exact, case-sensitive).
func (s *Service) CheckAvailability(ctx context.Context, slug, excludeID string) error {
	if err := ValidateSlug(slug); err != nil {
		return err
	}
	taken, err := s.store.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: %q", ErrUsernameTaken, slug)
	}
	return nil
}

// Save validates form and writes it to the user's profile. A user without
// a profile row gets one. The caller's form is never modified.
func (s *Service) Save(ctx context.Context, userID string, form Form) (*models.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		p = &models.Profile{ID: userID, PlanType: models.PlanFree, NotifyOrderUpdates: true}
	case err != nil:
		return nil, err
	}

	links, err := s.validate(p, form)
	if err != nil {
		return nil, err
	}
	if err := s.CheckAvailability(ctx, form.Slug, userID); err != nil {
		return nil, err
	}

	updated := *p
	updated.Slug = form.Slug
	updated.Name = strings.TrimSpace(form.Name)
	updated.Title = strings.TrimSpace(form.Title)
	updated.Bio = strings.TrimSpace(form.Bio)
	updated.Phone = strings.TrimSpace(form.Phone)
	updated.AvatarURL = form.AvatarURL
	updated.Links = links
	updated.ShowEmail = form.ShowEmail
	updated.ShowPhone = form.ShowPhone
	updated.UseUsernameInsteadOfName = form.UseUsernameInsteadOfName
	updated.LayoutStyle = form.LayoutStyle
	if updated.LayoutStyle == "" {
		updated.LayoutStyle = models.LayoutList
	}
	updated.Theme = form.Theme
	updated.BackgroundURL = form.BackgroundURL

	if err := s.store.SaveProfile(ctx, &updated); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: %q", ErrUsernameTaken, form.Slug)
		}
		slog.Error("Failed to save profile", "user_id", userID, "error", err)
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return &updated, nil
}

func (s *Service) validate(p *models.Profile, form Form) (models.Links, error) {
	if err := ValidateSlug(form.Slug); err != nil {
		return nil, err
	}
	if strings.TrimSpace(form.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	checks := []error{
		checkLength("name", strings.TrimSpace(form.Name), MaxNameLength),
		checkLength("title", strings.TrimSpace(form.Title), MaxTitleLength),
		checkLength("bio", strings.TrimSpace(form.Bio), MaxBioLength),
		checkLength("phone", strings.TrimSpace(form.Phone), maxPhoneLength),
		checkLength("theme", form.Theme, maxThemeLength),
		checkLength("background", form.BackgroundURL, maxURLLength),
	}
	for _, err := range checks {
		if err != nil {
			return nil, err
		}
	}

	policy := plan.For(p.PlanType)
	if !policy.AllowsLayout(form.LayoutStyle) {
		return nil, fmt.Errorf("%w: %q layout requires the pro plan", ErrPlanLimit, form.LayoutStyle)
	}
	if form.BackgroundURL != "" && !policy.CanUseCustomBackground {
		return nil, fmt.Errorf("%w: custom backgrounds require the pro plan", ErrPlanLimit)
	}
	if !policy.Allows(len(form.Links)) {
		return nil, fmt.Errorf("%w: the %s plan allows %d links", ErrPlanLimit, policy.Plan, policy.MaxLinks)
	}

	links := make(models.Links, 0, len(form.Links))
	for i, l := range form.Links {
		label := strings.TrimSpace(l.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: link %d has no label", ErrInvalidInput, i+1)
		}
		if err := checkLength("label", label, MaxLabelLength); err != nil {
			return nil, err
		}
		u, err := platform.NormalizeURL(l.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: link %d: %v", ErrInvalidInput, i+1, err)
		}
		links = append(links, models.Link{Label: label, URL: u, Thumbnail: l.Thumbnail})
	}
	return links, nil
}

// SetVisibility applies the privacy quick toggles.
func (s *Service) SetVisibility(ctx context.Context, userID string, v store.Visibility) error {
	err := s.store.UpdateVisibility(ctx, userID, v)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// UploadAvatar stores the image and points the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	url, err := s.Upload(ctx, userID, filename, r)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateAvatar(ctx, userID, url); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return url, nil
}

// Upload stores an image owned by userID without touching the profile.
func (s *Service) Upload(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	if s.uploader == nil {
		return "", errors.New("no media store configured")
	}
	url, err := s.uploader.Upload(ctx, userID, filename, r)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) || errors.Is(err, media.ErrDecode) {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return "", err
	}
	return url, nil
}
