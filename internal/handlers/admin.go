package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/richmondazadze/scantotap-sub001/internal/admin"
	"github.com/richmondazadze/scantotap-sub001/internal/inventory"
)

type AdminHandler struct {
	Admin     *admin.Service
	Inventory *inventory.Service
	Sessions  *Sessions

	now func() time.Time
}

func (h *AdminHandler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Success          bool      `json:"success"`
	Username         string    `json:"username"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

func (h *AdminHandler) sessionView(a admin.Session) sessionResponse {
	return sessionResponse{
		Success:          true,
		Username:         a.Username,
		ExpiresAt:        a.ExpiresAt.UTC(),
		RemainingSeconds: int(a.Remaining(h.clock()).Seconds()),
	}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	user, err := h.Admin.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errorStatus(err) == http.StatusUnauthorized {
			slog.Warn("Admin login failed", "username", req.Username, "ip", clientIP(r))
		}
		writeServiceError(w, r, err)
		return
	}

	a := admin.NewSession(user, h.clock(), h.Sessions.AdminTTL)
	if err := h.Sessions.SaveAdmin(w, r, a); err != nil {
		slog.Error("Failed to save session", "error", err)
		writeServiceError(w, r, err)
		return
	}
	slog.Info("Admin login successful", "user_id", user.ID)
	respondJSON(w, http.StatusOK, h.sessionView(a))
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.EndAdmin(w, r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Session reports how long the current admin session has left.
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	a, _ := h.Sessions.Admin(r)
	respondJSON(w, http.StatusOK, h.sessionView(a))
}

// Renew moves the session deadline a full TTL ahead.
func (h *AdminHandler) Renew(w http.ResponseWriter, r *http.Request) {
	a, _ := h.Sessions.Admin(r)
	if !a.Renew(h.clock(), h.Sessions.AdminTTL) {
		writeError(w, http.StatusUnauthorized, "Admin session expired")
		return
	}
	if err := h.Sessions.SaveAdmin(w, r, a); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.sessionView(a))
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	page, err := h.Admin.Profiles(r.Context(), admin.ParseQuery(r.URL.Query()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) ProfilesCSV(w http.ResponseWriter, r *http.Request) {
	q := admin.ParseQuery(r.URL.Query())
	h.csv(w, r, "profiles", func() error { return h.Admin.ExportProfiles(r.Context(), w, q) })
}

// csv streams an export as an attachment. Errors after the first byte can
// only be logged.
func (h *AdminHandler) csv(w http.ResponseWriter, r *http.Request, name string, export func() error) {
	filename := name + "-" + h.clock().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export(); err != nil {
		slog.Error("CSV export failed", "export", name, "error", err)
	}
}
