package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/richmondazadze/scantotap-sub001/internal/media"
	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/plan"
	"github.com/richmondazadze/scantotap-sub001/internal/platform"
	"github.com/richmondazadze/scantotap-sub001/internal/profile"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

const (
	defaultReportDays = 30
	maxReportDays     = 365
)

type AnalyticsReporter interface {
	ProfileReport(ctx context.Context, profileID string, since time.Time) (*store.ProfileReport, error)
}

// ProfileHandler serves the dashboard of a signed in, onboarded user.
type ProfileHandler struct {
	Profiles       *profile.Service
	Reports        AnalyticsReporter
	BaseURL        string
	MaxUploadBytes int64

	now func() time.Time
}

type profileResponse struct {
	Profile *models.Profile `json:"profile"`
	Policy  policyView      `json:"policy"`
}

func respondProfile(w http.ResponseWriter, status int, p *models.Profile) {
	respondJSON(w, status, profileResponse{Profile: p, Policy: newPolicyView(plan.For(p.PlanType))})
}

// Onboarded keeps users who have not finished onboarding out of the
// dashboard.
func (h *ProfileHandler) Onboarded(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.Profiles.Get(r.Context(), userIDFrom(r.Context()))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if !p.OnboardingComplete {
			writeError(w, http.StatusForbidden, "Finish onboarding first")
			return
		}
		next(w, r)
	}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Get(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondProfile(w, http.StatusOK, p)
}

// Put saves the whole editable form.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	var form profile.Form
	if err := decodeJSON(w, r, &form); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.Profiles.Save(r.Context(), userIDFrom(r.Context()), form)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondProfile(w, http.StatusOK, p)
}

// edit runs one editor mutation against the stored profile and saves the
// result.
func (h *ProfileHandler) edit(w http.ResponseWriter, r *http.Request, status int, mutate func(*profile.Editor) error) {
	userID := userIDFrom(r.Context())
	editor, err := h.Profiles.Editor(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := mutate(editor); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.Profiles.Save(r.Context(), userID, editor.Form)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondProfile(w, status, p)
}

type socialLinkRequest struct {
	Platform string `json:"platform"`
	Value    string `json:"value"`
}

func (h *ProfileHandler) AddSocial(w http.ResponseWriter, r *http.Request) {
	var req socialLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := platform.Lookup(req.Platform)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.edit(w, r, http.StatusCreated, func(e *profile.Editor) error {
		_, err := e.AddSocialLink(p, req.Value)
		return err
	})
}

// AddCustom takes a multipart form with label, url and an optional
// thumbnail image.
func (h *ProfileHandler) AddCustom(w http.ResponseWriter, r *http.Request) {
	file, header, err := formFile(w, r, "thumbnail", h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var thumb *profile.Thumbnail
	if file != nil {
		defer file.Close()
		thumb = &profile.Thumbnail{Filename: header.Filename, Body: file}
	}
	label, rawURL := r.FormValue("label"), r.FormValue("url")
	h.edit(w, r, http.StatusCreated, func(e *profile.Editor) error {
		_, err := e.AddCustomLink(r.Context(), label, rawURL, thumb)
		return err
	})
}

func (h *ProfileHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid link index")
		return
	}
	h.edit(w, r, http.StatusOK, func(e *profile.Editor) error {
		return e.RemoveLink(index)
	})
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *ProfileHandler) MoveLink(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.edit(w, r, http.StatusOK, func(e *profile.Editor) error {
		return e.MoveLink(req.From, req.To)
	})
}

func (h *ProfileHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	var v store.Visibility
	if err := decodeJSON(w, r, &v); err != nil {
		writeServiceError(w, r, err)
		return
	}
	userID := userIDFrom(r.Context())
	if err := h.Profiles.SetVisibility(r.Context(), userID, v); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.Get(w, r)
}

func (h *ProfileHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	file, header, err := formFile(w, r, "avatar", h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if file == nil {
		writeError(w, http.StatusBadRequest, "Choose an image to upload")
		return
	}
	defer file.Close()

	url, err := h.Profiles.UploadAvatar(r.Context(), userIDFrom(r.Context()), header.Filename, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// Analytics reports visits and clicks over the last ?days days.
func (h *ProfileHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	days := defaultReportDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive number")
			return
		}
		days = min(n, maxReportDays)
	}
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	report, err := h.Reports.ProfileReport(r.Context(), userIDFrom(r.Context()), now().AddDate(0, 0, -days))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// QR renders the QR code printed on the user's card.
func (h *ProfileHandler) QR(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Get(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeQR(w, r, profileURL(h.BaseURL, p))
}

// profileURL is the public address a card's QR code points at.
func profileURL(baseURL string, p *models.Profile) string {
	base := strings.TrimSuffix(baseURL, "/")
	if p.Slug == "" {
		return base + "/u/" + p.ID
	}
	return base + "/" + p.Slug
}

func writeQR(w http.ResponseWriter, r *http.Request, content string) {
	size := media.DefaultQRSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "size must be a number")
			return
		}
		size = n
	}
	png, err := media.QRCode(content, size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(png)
}
