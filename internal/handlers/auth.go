package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/notify"
	"github.com/richmondazadze/scantotap-sub001/internal/plan"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

type AuthStore interface {
	CreateLoginToken(ctx context.Context, email, token string, ttl time.Duration) error
	ConsumeLoginToken(ctx context.Context, token string) (string, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	CreateProfile(ctx context.Context, p *models.Profile) error
}

// LinkSender emails sign-in links.
type LinkSender interface {
	MagicLink(ctx context.Context, email, token string, ttl time.Duration) error
}

type AuthHandler struct {
	Store    AuthStore
	Mailer   LinkSender
	Sessions *Sessions
	TokenTTL time.Duration
	BaseURL  string
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type linkRequest struct {
	Email string `json:"email"`
}

// RequestLink emails a one-time sign-in link. The same link signs up a new
// address.
func (h *AuthHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !notify.IsValidEmail(email) {
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	token, err := generateToken()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.Store.CreateLoginToken(r.Context(), email, token, h.TokenTTL); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.Mailer.MagicLink(r.Context(), email, token, h.TokenTTL); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Check your inbox for a sign-in link",
	})
}

// Callback signs the user in with a link token, creating their profile on
// first sign-in, and sends them on to onboarding or the dashboard.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Missing sign-in token")
		return
	}
	email, err := h.Store.ConsumeLoginToken(r.Context(), token)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid or expired link, please request a new one")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := h.findOrCreate(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.Sessions.StartUser(w, r, p.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	slog.Info("User signed in", "user_id", p.ID)

	next := "/dashboard"
	if !p.OnboardingComplete {
		next = "/onboarding"
	}
	http.Redirect(w, r, strings.TrimSuffix(h.BaseURL, "/")+next, http.StatusSeeOther)
}

func (h *AuthHandler) findOrCreate(ctx context.Context, email string) (*models.Profile, error) {
	p, err := h.Store.GetProfileByEmail(ctx, email)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	p = &models.Profile{
		ID:                 uuid.NewString(),
		Email:              email,
		NotifyOrderUpdates: true,
	}
	if err := h.Store.CreateProfile(ctx, p); err != nil {
		return nil, err
	}
	slog.Info("Profile created", "user_id", p.ID)
	return p, nil
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.EndUser(w, r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me returns the signed in user's profile and plan limits.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProfile(r.Context(), userIDFrom(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		h.Sessions.EndUser(w, r)
		writeError(w, http.StatusUnauthorized, "Please sign in")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"profile": p,
		"policy":  newPolicyView(plan.For(p.PlanType)),
	})
}

// CSRFToken hands the client the token to echo in X-CSRF-Token.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"token": csrf.Token(r)})
}
