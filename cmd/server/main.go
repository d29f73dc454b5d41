package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/richmondazadze/scantotap-sub001/internal/admin"
	"github.com/richmondazadze/scantotap-sub001/internal/config"
	"github.com/richmondazadze/scantotap-sub001/internal/handlers"
	"github.com/richmondazadze/scantotap-sub001/internal/inventory"
	"github.com/richmondazadze/scantotap-sub001/internal/logging"
	"github.com/richmondazadze/scantotap-sub001/internal/media"
	"github.com/richmondazadze/scantotap-sub001/internal/notify"
	"github.com/richmondazadze/scantotap-sub001/internal/onboarding"
	"github.com/richmondazadze/scantotap-sub001/internal/payment"
	"github.com/richmondazadze/scantotap-sub001/internal/profile"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until it stops. Deferred cleanup runs on
// every return path.
func run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	slog.SetDefault(logging.New(cfg.Logging))

	// 2. Init DB
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// 3. Media and email
	uploads, err := media.NewDiskStore(cfg.Media.Dir, cfg.Media.URLPrefix, cfg.Media.MaxWidth)
	if err != nil {
		return fmt.Errorf("initialize media store: %w", err)
	}

	var mailer notify.Mailer = &notify.LogMailer{}
	if cfg.Email.ResendAPIKey != "" {
		mailer, err = notify.NewResendMailer(cfg.Email.ResendAPIKey, "")
		if err != nil {
			return fmt.Errorf("initialize mailer: %w", err)
		}
	}
	notifier, err := notify.New(notify.Config{
		From:         cfg.Email.From,
		AdminAddress: cfg.Email.AdminAddress,
		ReplyTo:      cfg.Email.ReplyTo,
		BaseURL:      cfg.HTTP.BaseURL,
	}, mailer, db)
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}

	// 4. Services
	profiles := profile.NewService(db, uploads)
	inv := inventory.NewService(db, inventory.Pricing{
		BasePrice:             cfg.Commerce.BasePrice,
		ShippingFee:           cfg.Commerce.ShippingFee,
		FreeShippingThreshold: cfg.Commerce.FreeShippingThreshold,
		TaxRate:               cfg.Commerce.TaxRate,
	})

	// 5. Session Setup
	sessions := handlers.NewSessions(
		handlers.NewCookieStore(cfg.Auth.SessionKey, cfg.Auth.CookieDomain, cfg.Auth.CookieSecure),
		cfg.Auth.UserSessionTTL,
		cfg.Auth.AdminSessionTTL,
	)
	trusted := append([]string{"localhost:" + cfg.HTTP.Port, "127.0.0.1:" + cfg.HTTP.Port, "localhost", "127.0.0.1"}, hosts(cfg.HTTP.AllowedOrigins)...)
	csrf := handlers.NewCSRF(cfg.Auth.CSRFKey, cfg.Auth.CookieSecure, trusted)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Rate Limiter (1 request per minute)
	rateLimiter := handlers.NewRateLimiter(1 * time.Minute)
	go rateLimiter.Run(ctx, 5*time.Minute)

	// 6. Handlers
	handler := handlers.NewRouter(handlers.RouterDependencies{
		Auth: &handlers.AuthHandler{
			Store:    db,
			Mailer:   notifier,
			Sessions: sessions,
			TokenTTL: cfg.Auth.MagicLinkTTL,
			BaseURL:  cfg.HTTP.BaseURL,
		},
		Onboarding: &handlers.OnboardingHandler{
			Wizards:        onboarding.NewService(db, payment.Sandbox{}, notifier),
			Profiles:       profiles,
			MaxUploadBytes: cfg.Media.MaxUploadBytes,
		},
		Profile: &handlers.ProfileHandler{
			Profiles:       profiles,
			Reports:        db,
			BaseURL:        cfg.HTTP.BaseURL,
			MaxUploadBytes: cfg.Media.MaxUploadBytes,
		},
		Public: &handlers.PublicHandler{
			Profiles:  profiles,
			Inventory: inv,
			Analytics: db,
			Health:    db,
			Sessions:  sessions,
			BaseURL:   cfg.HTTP.BaseURL,
		},
		Orders: &handlers.OrderHandler{Inventory: inv},
		Email:  &handlers.EmailHandler{Notifier: notifier},
		Admin: &handlers.AdminHandler{
			Admin:     admin.NewService(db, notifier),
			Inventory: inv,
			Sessions:  sessions,
		},
		Sessions:       sessions,
		RateLimiter:    rateLimiter,
		CSRF:           csrf,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MediaDir:       cfg.Media.Dir,
		MediaPrefix:    cfg.Media.URLPrefix,
	})

	// 7. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", cfg.HTTP.Port, "base_url", cfg.HTTP.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}
	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("Server exited gracefully.")
	return nil
}

// hosts strips the scheme from each origin so it can be trusted by the
// CSRF referer check.
func hosts(origins []string) []string {
	var out []string
	for _, origin := range origins {
		if origin == "*" {
			continue
		}
		if _, host, ok := strings.Cut(origin, "://"); ok {
			origin = host
		}
		out = append(out, origin)
	}
	return out
}
