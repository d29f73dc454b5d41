package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBPath   string         `mapstructure:"db_path"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	Media    MediaConfig    `mapstructure:"media"`
	Commerce CommerceConfig `mapstructure:"commerce"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	BaseURL         string        `mapstructure:"base_url"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"` // text|json
	IncludeCaller bool   `mapstructure:"include_caller"`
}

type AuthConfig struct {
	CSRFKey         []byte        `mapstructure:"-"`
	SessionKey      []byte        `mapstructure:"-"`
	CSRFKeyBase64   string        `mapstructure:"csrf_key"`
	SessionKeyB64   string        `mapstructure:"session_key"`
	CookieDomain    string        `mapstructure:"cookie_domain"`
	CookieSecure    bool          `mapstructure:"cookie_secure"`
	AdminSessionTTL time.Duration `mapstructure:"admin_session_ttl"`
	UserSessionTTL  time.Duration `mapstructure:"user_session_ttl"`
	MagicLinkTTL    time.Duration `mapstructure:"magic_link_ttl"`
}

type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
	AdminAddress string `mapstructure:"admin_address"`
	ReplyTo      string `mapstructure:"reply_to"`
}

type MediaConfig struct {
	Dir            string `mapstructure:"dir"`
	URLPrefix      string `mapstructure:"url_prefix"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	MaxWidth       uint   `mapstructure:"max_width"`
}

// CommerceConfig prices physical card orders.
type CommerceConfig struct {
	BasePrice             float64 `mapstructure:"base_price"`
	ShippingFee           float64 `mapstructure:"shipping_fee"`
	FreeShippingThreshold float64 `mapstructure:"free_shipping_threshold"`
	TaxRate               float64 `mapstructure:"tax_rate"`
}

const defaultPort = "8585"

var defaults = map[string]any{
	"db_path":                          "./scan2tap.db",
	"http.port":                        defaultPort,
	"http.base_url":                    "http://localhost:" + defaultPort,
	"http.allowed_origins":             []string{},
	"http.read_timeout":                10 * time.Second,
	"http.write_timeout":               15 * time.Second,
	"http.idle_timeout":                60 * time.Second,
	"http.shutdown_timeout":            10 * time.Second,
	"logging.level":                    "info",
	"logging.format":                   "text",
	"logging.include_caller":           false,
	"auth.csrf_key":                    "",
	"auth.session_key":                 "",
	"auth.cookie_domain":               "",
	"auth.cookie_secure":               false,
	"auth.admin_session_ttl":           time.Hour,
	"auth.user_session_ttl":            30 * 24 * time.Hour,
	"auth.magic_link_ttl":              15 * time.Minute,
	"email.resend_api_key":             "",
	"email.from":                       "Scan2Tap <hello@scan2tap.com>",
	"email.admin_address":              "admin@scan2tap.com",
	"email.reply_to":                   "support@scan2tap.com",
	"media.dir":                        "./uploads",
	"media.url_prefix":                 "/media",
	"media.max_upload_bytes":           int64(5 << 20),
	"media.max_width":                  uint(800),
	"commerce.base_price":              29.99,
	"commerce.shipping_fee":            5.99,
	"commerce.free_shipping_threshold": 50.0,
	"commerce.tax_rate":                0.08,
}

// envKeys maps configuration keys to the environment variables that
// override them.
var envKeys = map[string]string{
	"db_path":                          "DB_PATH",
	"http.port":                        "PORT",
	"http.base_url":                    "BASE_URL",
	"http.allowed_origins":             "ALLOWED_ORIGINS",
	"http.read_timeout":                "SERVER_READ_TIMEOUT",
	"http.write_timeout":               "SERVER_WRITE_TIMEOUT",
	"http.idle_timeout":                "SERVER_IDLE_TIMEOUT",
	"http.shutdown_timeout":            "SERVER_SHUTDOWN_TIMEOUT",
	"logging.level":                    "LOG_LEVEL",
	"logging.format":                   "LOG_FORMAT",
	"logging.include_caller":           "LOG_INCLUDE_CALLER",
	"auth.csrf_key":                    "CSRF_KEY",
	"auth.session_key":                 "SESSION_KEY",
	"auth.cookie_domain":               "COOKIE_DOMAIN",
	"auth.cookie_secure":               "COOKIE_SECURE",
	"auth.admin_session_ttl":           "ADMIN_SESSION_TTL",
	"auth.user_session_ttl":            "USER_SESSION_TTL",
	"auth.magic_link_ttl":              "MAGIC_LINK_TTL",
	"email.resend_api_key":             "RESEND_API_KEY",
	"email.from":                       "EMAIL_FROM",
	"email.admin_address":              "ADMIN_EMAIL",
	"email.reply_to":                   "EMAIL_REPLY_TO",
	"media.dir":                        "MEDIA_DIR",
	"media.url_prefix":                 "MEDIA_URL_PREFIX",
	"media.max_upload_bytes":           "MEDIA_MAX_UPLOAD_BYTES",
	"media.max_width":                  "MEDIA_MAX_WIDTH",
	"commerce.base_price":              "CARD_BASE_PRICE",
	"commerce.shipping_fee":            "SHIPPING_FEE",
	"commerce.free_shipping_threshold": "FREE_SHIPPING_THRESHOLD",
	"commerce.tax_rate":                "TAX_RATE",
}

// LoadConfig reads defaults, then the YAML file named by SCAN2TAP_CONFIG if
// set, then environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path := os.Getenv("SCAN2TAP_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		slog.Info("Loaded config file", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// ALLOWED_ORIGINS arrives as one comma separated string.
	cfg.HTTP.AllowedOrigins = splitCSV(strings.Join(cfg.HTTP.AllowedOrigins, ","))

	cfg.Auth.CSRFKey = loadKey("CSRF_KEY", cfg.Auth.CSRFKeyBase64)
	cfg.Auth.SessionKey = loadKey("SESSION_KEY", cfg.Auth.SessionKeyB64)

	if _, err := strconv.Atoi(cfg.HTTP.Port); err != nil {
		slog.Error("Invalid PORT. Falling back to default.", "PORT", cfg.HTTP.Port)
		cfg.HTTP.Port = defaultPort
	}
	if cfg.Auth.AdminSessionTTL <= 0 {
		return nil, fmt.Errorf("ADMIN_SESSION_TTL must be positive, got %s", cfg.Auth.AdminSessionTTL)
	}
	if cfg.Commerce.TaxRate < 0 || cfg.Commerce.TaxRate >= 1 {
		return nil, fmt.Errorf("TAX_RATE must be in [0, 1), got %v", cfg.Commerce.TaxRate)
	}
	if cfg.Email.ResendAPIKey == "" {
		slog.Warn("RESEND_API_KEY not set. Emails will be written to the log instead of being sent.")
	}
	return cfg, nil
}

// loadKey decodes a base64 key of at least 32 bytes, or generates a random
// development key.
func loadKey(name, encoded string) []byte {
	if encoded == "" {
		slog.Warn(name + " not set. Generating a random key for development. It will change on each restart. PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(key) < 32 {
		slog.Warn(name + " is invalid or shorter than 32 bytes. Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return key
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// generateRandomBytes uses crypto/rand. It only falls back to a fixed
// pattern if the system source fails, which keeps startup from panicking.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to read random bytes", "error", err)
		fallback := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		padded := make([]byte, n)
		copy(padded, fallback)
		return padded
	}
	return b
}
