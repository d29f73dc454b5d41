// Package plan maps a subscription plan to the limits it grants.
package plan

import (
	"math"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

// Unlimited is the MaxLinks value of plans without a link cap.
const Unlimited = math.MaxInt

// FreeMaxLinks is the link cap of the free plan.
const FreeMaxLinks = 7

type Policy struct {
	Plan                   string `json:"plan"`
	MaxLinks               int    `json:"max_links"`
	CanUseGridLayout       bool   `json:"can_use_grid_layout"`
	CanUseCustomBackground bool   `json:"can_use_custom_background"`
}

// For returns the policy of planType. Anything other than pro is free.
func For(planType string) Policy {
	if planType == models.PlanPro {
		return Policy{
			Plan:                   models.PlanPro,
			MaxLinks:               Unlimited,
			CanUseGridLayout:       true,
			CanUseCustomBackground: true,
		}
	}
	return Policy{
		Plan:     models.PlanFree,
		MaxLinks: FreeMaxLinks,
	}
}

// All returns the policy of every plan, free first.
func All() []Policy {
	return []Policy{For(models.PlanFree), For(models.PlanPro)}
}

// Unbounded reports whether the policy has no link cap.
func (p Policy) Unbounded() bool { return p.MaxLinks == Unlimited }

// AllowsAnother reports whether one more link fits next to current.
func (p Policy) AllowsAnother(current int) bool {
	return current < p.MaxLinks
}

// Allows reports whether n links fit the plan.
func (p Policy) Allows(n int) bool {
	return n <= p.MaxLinks
}

// Truncate drops links past the plan's cap.
func (p Policy) Truncate(links []models.Link) []models.Link {
	if len(links) <= p.MaxLinks {
		return links
	}
	return links[:p.MaxLinks]
}

// AllowsLayout reports whether layout may be used on this plan.
func (p Policy) AllowsLayout(layout string) bool {
	switch layout {
	case "", models.LayoutList:
		return true
	case models.LayoutGrid:
		return p.CanUseGridLayout
	}
	return false
}
