// Package profile implements profile editing: link management gated by the
// plan, and the validated save of a profile with its username ledger.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richmondazadze/scantotap-sub001/internal/media"
	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/plan"
	"github.com/richmondazadze/scantotap-sub001/internal/platform"
)

// Form is the editable part of a profile.
type Form struct {
	Slug                     string       `json:"slug"`
	Name                     string       `json:"name"`
	Title                    string       `json:"title"`
	Bio                      string       `json:"bio"`
	Phone                    string       `json:"phone"`
	AvatarURL                string       `json:"avatar_url"`
	Links                    models.Links `json:"links"`
	ShowEmail                bool         `json:"show_email"`
	ShowPhone                bool         `json:"show_phone"`
	UseUsernameInsteadOfName bool         `json:"use_username_instead_of_name"`
	LayoutStyle              string       `json:"layout_style"`
	Theme                    string       `json:"theme"`
	BackgroundURL            string       `json:"background_url"`
}

// FormFrom copies the editable fields out of p.
func FormFrom(p *models.Profile) Form {
	links := make(models.Links, len(p.Links))
	copy(links, p.Links)
	return Form{
		Slug:                     p.Slug,
		Name:                     p.Name,
		Title:                    p.Title,
		Bio:                      p.Bio,
		Phone:                    p.Phone,
		AvatarURL:                p.AvatarURL,
		Links:                    links,
		ShowEmail:                p.ShowEmail,
		ShowPhone:                p.ShowPhone,
		UseUsernameInsteadOfName: p.UseUsernameInsteadOfName,
		LayoutStyle:              p.LayoutStyle,
		Theme:                    p.Theme,
		BackgroundURL:            p.BackgroundURL,
	}
}

// Editor is the in-memory form state of one profile. Link mutations are
// checked against the plan before they are applied; nothing is persisted
// until Service.Save.
type Editor struct {
	ProfileID string
	Policy    plan.Policy
	Form      Form

	uploader media.Uploader
}

func NewEditor(p *models.Profile, uploader media.Uploader) *Editor {
	return &Editor{
		ProfileID: p.ID,
		Policy:    plan.For(p.PlanType),
		Form:      FormFrom(p),
		uploader:  uploader,
	}
}

func (e *Editor) limitErr() error {
	return fmt.Errorf("%w: the %s plan allows %d links, upgrade to add more", ErrPlanLimit, e.Policy.Plan, e.Policy.MaxLinks)
}

// AddSocialLink parses raw for the platform and appends the canonical link.
func (e *Editor) AddSocialLink(p platform.Platform, raw string) (platform.Parsed, error) {
	parsed, err := platform.Parse(p, raw)
	if err != nil {
		return platform.Parsed{}, inputErr(err)
	}
	if !e.Policy.AllowsAnother(len(e.Form.Links)) {
		return platform.Parsed{}, e.limitErr()
	}
	e.Form.Links = append(e.Form.Links, models.Link{Label: p.Label(), URL: parsed.URL})
	return parsed, nil
}

// Thumbnail is an optional image attached to a custom link.
type Thumbnail struct {
	Filename string
	Body     io.Reader
}

// AddCustomLink appends a labelled link. A thumbnail, if any, is uploaded
// first and owned by the profile.
func (e *Editor) AddCustomLink(ctx context.Context, label, rawURL string, thumb *Thumbnail) (models.Link, error) {
	label = strings.TrimSpace(label)
	if label == "" || strings.TrimSpace(rawURL) == "" {
		return models.Link{}, fmt.Errorf("%w: label and URL are required", ErrInvalidInput)
	}
	if err := checkLength("label", label, MaxLabelLength); err != nil {
		return models.Link{}, err
	}
	u, err := platform.NormalizeURL(rawURL)
	if err != nil {
		return models.Link{}, inputErr(err)
	}
	if !e.Policy.AllowsAnother(len(e.Form.Links)) {
		return models.Link{}, e.limitErr()
	}

	link := models.Link{Label: label, URL: u}
	if thumb != nil && thumb.Body != nil {
		if e.uploader == nil {
			return models.Link{}, errors.New("no media store configured")
		}
		thumbURL, err := e.uploader.Upload(ctx, e.ProfileID, thumb.Filename, thumb.Body)
		if err != nil {
			if errors.Is(err, media.ErrUnsupportedFormat) || errors.Is(err, media.ErrDecode) {
				return models.Link{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			return models.Link{}, fmt.Errorf("upload thumbnail: %w", err)
		}
		link.Thumbnail = thumbURL
	}
	e.Form.Links = append(e.Form.Links, link)
	return link, nil
}

// RemoveLink drops the link at index.
func (e *Editor) RemoveLink(index int) error {
	if index < 0 || index >= len(e.Form.Links) {
		return fmt.Errorf("%w: no link at position %d", ErrInvalidInput, index)
	}
	e.Form.Links = append(e.Form.Links[:index], e.Form.Links[index+1:]...)
	return nil
}

// MoveLink moves the link at from to position to.
func (e *Editor) MoveLink(from, to int) error {
	n := len(e.Form.Links)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: link positions out of range", ErrInvalidInput)
	}
	link := e.Form.Links[from]
	links := append(e.Form.Links[:from:from], e.Form.Links[from+1:]...)
	links = append(links[:to], append(models.Links{link}, links[to:]...)...)
	e.Form.Links = links
	return nil
}

func inputErr(err error) error {
	if errors.Is(err, platform.ErrInvalidInput) || errors.Is(err, platform.ErrEmptyInput) || errors.Is(err, platform.ErrUnknownPlatform) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return err
}
