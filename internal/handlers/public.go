package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/richmondazadze/scantotap-sub001/internal/inventory"
	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/plan"
	"github.com/richmondazadze/scantotap-sub001/internal/platform"
	"github.com/richmondazadze/scantotap-sub001/internal/profile"
)

const probeTimeout = 2 * time.Second

type Prober interface {
	Probe(ctx context.Context) error
}

type VisitRecorder interface {
	RecordVisit(ctx context.Context, v *models.ProfileVisit) error
	RecordClick(ctx context.Context, c *models.LinkClick) error
}

// PublicHandler serves everything reachable without signing in.
type PublicHandler struct {
	Profiles  *profile.Service
	Inventory *inventory.Service
	Analytics VisitRecorder
	Health    Prober
	Sessions  *Sessions
	BaseURL   string
}

// policyView is a plan policy as the pricing page reads it. MaxLinks is
// null for plans without a cap.
type policyView struct {
	Plan                   string `json:"plan"`
	MaxLinks               *int   `json:"max_links"`
	CanUseGridLayout       bool   `json:"can_use_grid_layout"`
	CanUseCustomBackground bool   `json:"can_use_custom_background"`
}

func newPolicyView(p plan.Policy) policyView {
	v := policyView{
		Plan:                   p.Plan,
		CanUseGridLayout:       p.CanUseGridLayout,
		CanUseCustomBackground: p.CanUseCustomBackground,
	}
	if !p.Unbounded() {
		n := p.MaxLinks
		v.MaxLinks = &n
	}
	return v
}

func (h *PublicHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()
	if err := h.Health.Probe(ctx); err != nil {
		slog.Error("Health probe failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// published loads a profile for public viewing. Profiles still in
// onboarding do not exist to the public.
func published(p *models.Profile, err error) (*models.Profile, error) {
	if err != nil {
		return nil, err
	}
	if !p.OnboardingComplete {
		return nil, profile.ErrNotFound
	}
	return p, nil
}

func (h *PublicHandler) ProfileBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := published(h.Profiles.GetBySlug(r.Context(), r.PathValue("slug")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recordVisit(r, p)
	respondJSON(w, http.StatusOK, profile.Public(p))
}

func (h *PublicHandler) ProfileByID(w http.ResponseWriter, r *http.Request) {
	p, err := published(h.Profiles.Get(r.Context(), r.PathValue("id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recordVisit(r, p)
	respondJSON(w, http.StatusOK, profile.Public(p))
}

// recordVisit counts a view unless the owner is looking at their own card.
// Failures are logged only.
func (h *PublicHandler) recordVisit(r *http.Request, p *models.Profile) {
	if id, ok := h.Sessions.UserID(r); ok && id == p.ID {
		return
	}
	visit := &models.ProfileVisit{
		ProfileID: p.ID,
		Referrer:  r.Referer(),
		UserAgent: r.UserAgent(),
	}
	if err := h.Analytics.RecordVisit(r.Context(), visit); err != nil {
		slog.Warn("Failed to record profile visit", "profile_id", p.ID, "error", err)
	}
}

func (h *PublicHandler) QR(w http.ResponseWriter, r *http.Request) {
	p, err := published(h.Profiles.GetBySlug(r.Context(), r.PathValue("slug")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeQR(w, r, profileURL(h.BaseURL, p))
}

type clickRequest struct {
	Index int `json:"index"`
}

func (h *PublicHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := published(h.Profiles.GetBySlug(r.Context(), r.PathValue("slug")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.Index < 0 || req.Index >= len(p.Links) {
		writeError(w, http.StatusBadRequest, "No link at that position")
		return
	}
	link := p.Links[req.Index]
	click := &models.LinkClick{
		ProfileID: p.ID,
		LinkIndex: req.Index,
		LinkLabel: link.Label,
		LinkURL:   link.URL,
	}
	if err := h.Analytics.RecordClick(r.Context(), click); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "url": link.URL})
}

func (h *PublicHandler) Plans(w http.ResponseWriter, r *http.Request) {
	policies := plan.All()
	out := make([]policyView, 0, len(policies))
	for _, p := range policies {
		out = append(out, newPolicyView(p))
	}
	respondJSON(w, http.StatusOK, out)
}

type platformView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

func (h *PublicHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	all := platform.All()
	out := make([]platformView, 0, len(all))
	for _, p := range all {
		out = append(out, platformView{Key: p.Key(), Label: p.Label()})
	}
	respondJSON(w, http.StatusOK, out)
}

type availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Availability reports whether a username can be claimed. The signed in
// user's own username counts as available.
func (h *PublicHandler) Availability(w http.ResponseWriter, r *http.Request) {
	exclude, _ := h.Sessions.UserID(r)
	err := h.Profiles.CheckAvailability(r.Context(), r.PathValue("slug"), exclude)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, availability{Available: true})
	case errors.Is(err, profile.ErrUsernameTaken):
		respondJSON(w, http.StatusOK, availability{Reason: "This username is already taken"})
	case errors.Is(err, profile.ErrInvalidInput):
		respondJSON(w, http.StatusOK, availability{Reason: err.Error()})
	default:
		writeServiceError(w, r, err)
	}
}

// Catalogue lists what can currently be ordered.
func (h *PublicHandler) Catalogue(w http.ResponseWriter, r *http.Request) {
	catalogue, err := h.Inventory.Catalogue(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, catalogue)
}
