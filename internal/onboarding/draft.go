package onboarding

import (
	"encoding/json"
	"fmt"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/platform"
)

// Draft is everything the wizard has collected so far. It is stored as one
// JSON document per user and only reaches the profile on final submit.
type Draft struct {
	Username         string                       `json:"username"`
	FullName         string                       `json:"full_name"`
	AvatarPreset     string                       `json:"avatar_preset,omitempty"`
	AvatarURL        string                       `json:"avatar_url"`
	Title            string                       `json:"title"`
	Bio              string                       `json:"bio"`
	PlanType         string                       `json:"plan_type"`
	BillingCycle     string                       `json:"billing_cycle,omitempty"`
	PaymentReference string                       `json:"payment_reference,omitempty"`
	Platforms        []platform.Platform          `json:"platforms"`
	PlatformInputs   map[platform.Platform]string `json:"platform_inputs"`
	AdditionalLinks  models.Links                 `json:"additional_links"`
}

func newDraft() Draft {
	return Draft{
		PlanType:        models.PlanFree,
		Platforms:       []platform.Platform{},
		PlatformInputs:  map[platform.Platform]string{},
		AdditionalLinks: models.Links{},
	}
}

func decodeDraft(data string) (Draft, error) {
	d := newDraft()
	if data == "" {
		return d, nil
	}
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	if d.PlanType == "" {
		d.PlanType = models.PlanFree
	}
	if d.PlatformInputs == nil {
		d.PlatformInputs = map[platform.Platform]string{}
	}
	return d, nil
}

func (d Draft) encode() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode draft: %w", err)
	}
	return string(b), nil
}

// socialLinks formats every non-empty platform input, in selection order.
func (d Draft) socialLinks() (models.Links, error) {
	links := models.Links{}
	for _, p := range d.Platforms {
		raw := d.PlatformInputs[p]
		if raw == "" {
			continue
		}
		parsed, err := platform.Parse(p, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, p.Label(), err)
		}
		links = append(links, models.Link{Label: p.Label(), URL: parsed.URL})
	}
	return links, nil
}

func (d Draft) filledPlatforms() int {
	n := 0
	for _, p := range d.Platforms {
		if d.PlatformInputs[p] != "" {
			n++
		}
	}
	return n
}
