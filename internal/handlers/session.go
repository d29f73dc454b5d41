package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/richmondazadze/scantotap-sub001/internal/admin"
)

const (
	userSessionName  = "user-session"
	adminSessionName = "admin-session"
)

type ctxKey int

const userIDKey ctxKey = iota

// Sessions keeps the user and admin cookie sessions. A user session lasts
// UserTTL. An admin session ends at a fixed deadline stored in the cookie
// and checked on every request.
type Sessions struct {
	Store    sessions.Store
	UserTTL  time.Duration
	AdminTTL time.Duration

	now func() time.Time
}

func NewSessions(store sessions.Store, userTTL, adminTTL time.Duration) *Sessions {
	return &Sessions{Store: store, UserTTL: userTTL, AdminTTL: adminTTL, now: time.Now}
}

// NewCookieStore builds the cookie store shared by both sessions.
func NewCookieStore(key []byte, domain string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"
	if domain != "" {
		store.Options.Domain = domain
	}
	return store
}

// NewCSRF protects the session routes. The token is read from the
// X-CSRF-Token header and handed out by GET /api/csrf.
func NewCSRF(key []byte, secure bool, trustedOrigins []string) func(http.Handler) http.Handler {
	return csrf.Protect(
		key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("CSRF check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
			writeError(w, http.StatusForbidden, "Invalid or missing CSRF token")
		})),
	)
}

func (s *Sessions) StartUser(w http.ResponseWriter, r *http.Request, userID string) error {
	session, _ := s.Store.Get(r, userSessionName)
	session.Values["authenticated"] = true
	session.Values["user_id"] = userID
	session.Options.MaxAge = int(s.UserTTL.Seconds())
	return session.Save(r, w)
}

func (s *Sessions) UserID(r *http.Request) (string, bool) {
	session, _ := s.Store.Get(r, userSessionName)
	if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
		return "", false
	}
	id, ok := session.Values["user_id"].(string)
	return id, ok && id != ""
}

func (s *Sessions) EndUser(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.Store.Get(r, userSessionName)
	session.Values["authenticated"] = false
	delete(session.Values, "user_id")
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// RequireUser rejects requests without a signed in user and passes the
// user id on through the request context.
func (s *Sessions) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.UserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Please sign in")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	}
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func (s *Sessions) SaveAdmin(w http.ResponseWriter, r *http.Request, a admin.Session) error {
	session, _ := s.Store.Get(r, adminSessionName)
	session.Values["authenticated"] = true
	session.Values["user_id"] = a.UserID
	session.Values["username"] = a.Username
	session.Values["expires_at"] = a.ExpiresAt.Unix()
	session.Options.MaxAge = int(a.Remaining(s.now()).Seconds()) + 1
	return session.Save(r, w)
}

// Admin returns the admin session of r, expired or not.
func (s *Sessions) Admin(r *http.Request) (admin.Session, bool) {
	session, _ := s.Store.Get(r, adminSessionName)
	if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
		return admin.Session{}, false
	}
	id, _ := session.Values["user_id"].(int64)
	username, _ := session.Values["username"].(string)
	expires, ok := session.Values["expires_at"].(int64)
	if !ok {
		return admin.Session{}, false
	}
	return admin.Session{UserID: id, Username: username, ExpiresAt: time.Unix(expires, 0)}, true
}

func (s *Sessions) EndAdmin(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.Store.Get(r, adminSessionName)
	session.Values["authenticated"] = false
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// RequireAdmin ensures an admin is logged in and their session has not
// reached its deadline.
func (s *Sessions) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := s.Admin(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Admin login required")
			return
		}
		if a.Expired(s.now()) {
			slog.Info("Admin session expired", "user_id", a.UserID)
			s.EndAdmin(w, r)
			writeError(w, http.StatusUnauthorized, "Admin session expired")
			return
		}
		next(w, r)
	}
}
