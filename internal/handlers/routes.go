package handlers

import (
	"net/http"
	"strings"
)

type RouterDependencies struct {
	Auth        *AuthHandler
	Onboarding  *OnboardingHandler
	Profile     *ProfileHandler
	Public      *PublicHandler
	Orders      *OrderHandler
	Email       *EmailHandler
	Admin       *AdminHandler
	Sessions    *Sessions
	RateLimiter *RateLimiter

	// CSRF wraps every session route. Nil leaves them unprotected.
	CSRF func(http.Handler) http.Handler

	AllowedOrigins []string
	MediaDir       string
	MediaPrefix    string
}

// NewRouter builds the full handler chain:
// Logger -> Security Headers -> CORS -> Mux, with CSRF in front of the
// session routes.
func NewRouter(deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()
	limit := deps.RateLimiter.Middleware

	mux.HandleFunc("GET /healthz", deps.Public.Healthz)

	if deps.MediaDir != "" {
		prefix := "/" + strings.Trim(deps.MediaPrefix, "/")
		fileServer := http.FileServer(http.Dir(deps.MediaDir))
		mux.Handle("GET "+prefix+"/", http.StripPrefix(prefix, fileServer))
	}

	// Public Routes
	mux.HandleFunc("/api/contact", limit(deps.Email.Contact))
	mux.HandleFunc("/api/order-emails", deps.Email.OrderEmail)
	mux.HandleFunc("POST /api/auth/magic-link", limit(deps.Auth.RequestLink))
	mux.HandleFunc("GET /api/auth/callback", deps.Auth.Callback)
	mux.HandleFunc("GET /api/public/profiles/{slug}", deps.Public.ProfileBySlug)
	mux.HandleFunc("GET /api/public/profiles/{slug}/qr.png", deps.Public.QR)
	mux.HandleFunc("POST /api/public/profiles/{slug}/clicks", deps.Public.Click)
	mux.HandleFunc("GET /api/public/users/{id}", deps.Public.ProfileByID)
	mux.HandleFunc("GET /api/plans", deps.Public.Plans)
	mux.HandleFunc("GET /api/platforms", deps.Public.Platforms)
	mux.HandleFunc("GET /api/usernames/{slug}/availability", deps.Public.Availability)
	mux.HandleFunc("GET /api/inventory", deps.Public.Catalogue)

	var session http.Handler = sessionRoutes(deps)
	if deps.CSRF != nil {
		session = deps.CSRF(session)
	}
	mux.Handle("/api/", session)

	return LoggingMiddleware(
		SecurityHeadersMiddleware(
			CORSMiddleware(deps.AllowedOrigins)(mux),
		),
	)
}

func sessionRoutes(deps RouterDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	user := deps.Sessions.RequireUser
	onboarded := func(next http.HandlerFunc) http.HandlerFunc {
		return user(deps.Profile.Onboarded(next))
	}
	adminOnly := deps.Sessions.RequireAdmin

	mux.HandleFunc("GET /api/csrf", deps.Auth.CSRFToken)
	mux.HandleFunc("POST /api/auth/logout", deps.Auth.Logout)
	mux.HandleFunc("GET /api/me", user(deps.Auth.Me))

	mux.HandleFunc("GET /api/onboarding", user(deps.Onboarding.Get))
	mux.HandleFunc("POST /api/onboarding/continue", user(deps.Onboarding.Continue))
	mux.HandleFunc("POST /api/onboarding/skip", user(deps.Onboarding.Skip))
	mux.HandleFunc("POST /api/onboarding/back", user(deps.Onboarding.Back))
	mux.HandleFunc("POST /api/onboarding/links", user(deps.Onboarding.AddLink))
	mux.HandleFunc("POST /api/onboarding/avatar", user(deps.Onboarding.Avatar))

	mux.HandleFunc("GET /api/profile", onboarded(deps.Profile.Get))
	mux.HandleFunc("PUT /api/profile", onboarded(deps.Profile.Put))
	mux.HandleFunc("POST /api/profile/links/social", onboarded(deps.Profile.AddSocial))
	mux.HandleFunc("POST /api/profile/links/custom", onboarded(deps.Profile.AddCustom))
	mux.HandleFunc("POST /api/profile/links/move", onboarded(deps.Profile.MoveLink))
	mux.HandleFunc("DELETE /api/profile/links/{index}", onboarded(deps.Profile.DeleteLink))
	mux.HandleFunc("PATCH /api/profile/visibility", onboarded(deps.Profile.Visibility))
	mux.HandleFunc("POST /api/profile/avatar", onboarded(deps.Profile.Avatar))
	mux.HandleFunc("GET /api/profile/analytics", onboarded(deps.Profile.Analytics))
	mux.HandleFunc("GET /api/profile/qr.png", onboarded(deps.Profile.QR))
	mux.HandleFunc("GET /api/orders", onboarded(deps.Orders.List))
	mux.HandleFunc("POST /api/orders", onboarded(deps.Orders.Place))

	mux.HandleFunc("POST /api/admin/login", deps.Admin.Login)
	mux.HandleFunc("POST /api/admin/logout", deps.Admin.Logout)

	// Protected Routes
	mux.HandleFunc("GET /api/admin/session", adminOnly(deps.Admin.Session))
	mux.HandleFunc("POST /api/admin/session/renew", adminOnly(deps.Admin.Renew))
	mux.HandleFunc("GET /api/admin/stats", adminOnly(deps.Admin.Stats))
	mux.HandleFunc("GET /api/admin/profiles", adminOnly(deps.Admin.Profiles))
	mux.HandleFunc("GET /api/admin/profiles.csv", adminOnly(deps.Admin.ProfilesCSV))
	mux.HandleFunc("GET /api/admin/orders", adminOnly(deps.Admin.ListOrders))
	mux.HandleFunc("GET /api/admin/orders.csv", adminOnly(deps.Admin.OrdersCSV))
	mux.HandleFunc("POST /api/admin/orders/{id}/status", adminOnly(deps.Admin.UpdateOrderStatus))
	mux.HandleFunc("GET /api/admin/inventory/{kind}", adminOnly(deps.Admin.ListInventory))
	mux.HandleFunc("POST /api/admin/inventory/{kind}", adminOnly(deps.Admin.CreateInventory))
	mux.HandleFunc("PUT /api/admin/inventory/{kind}/{id}", adminOnly(deps.Admin.UpdateInventory))
	mux.HandleFunc("DELETE /api/admin/inventory/{kind}/{id}", adminOnly(deps.Admin.DeleteInventory))
	mux.HandleFunc("POST /api/admin/inventory/{kind}/{id}/toggle", adminOnly(deps.Admin.ToggleInventory))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return mux
}
