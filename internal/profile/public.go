package profile

import (
	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

// PublicProfile is what anyone scanning a card sees.
type PublicProfile struct {
	ID            string       `json:"id"`
	Slug          string       `json:"slug"`
	DisplayName   string       `json:"display_name"`
	Title         string       `json:"title"`
	Bio           string       `json:"bio"`
	AvatarURL     string       `json:"avatar_url"`
	Email         string       `json:"email,omitempty"`
	Phone         string       `json:"phone,omitempty"`
	Links         models.Links `json:"links"`
	LayoutStyle   string       `json:"layout_style"`
	Theme         string       `json:"theme,omitempty"`
	BackgroundURL string       `json:"background_url,omitempty"`
	PlanType      string       `json:"plan_type"`
}

// Public projects p for anonymous viewers, honouring its visibility flags.
func Public(p *models.Profile) PublicProfile {
	out := PublicProfile{
		ID:            p.ID,
		Slug:          p.Slug,
		DisplayName:   p.DisplayName(),
		Title:         p.Title,
		Bio:           p.Bio,
		AvatarURL:     p.AvatarURL,
		Links:         p.Links,
		LayoutStyle:   p.LayoutStyle,
		Theme:         p.Theme,
		BackgroundURL: p.BackgroundURL,
		PlanType:      p.PlanType,
	}
	if out.Links == nil {
		out.Links = models.Links{}
	}
	if p.ShowEmail {
		out.Email = p.Email
	}
	if p.ShowPhone {
		out.Phone = p.Phone
	}
	return out
}
