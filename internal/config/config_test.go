package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SCAN2TAP_CONFIG", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8585", cfg.HTTP.Port)
	assert.Equal(t, "./scan2tap.db", cfg.DBPath)
	assert.Equal(t, time.Hour, cfg.Auth.AdminSessionTTL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.MagicLinkTTL)
	assert.Equal(t, "/media", cfg.Media.URLPrefix)
	assert.Equal(t, uint(800), cfg.Media.MaxWidth)
	assert.InDelta(t, 0.08, cfg.Commerce.TaxRate, 1e-9)
	assert.Empty(t, cfg.HTTP.AllowedOrigins)
	assert.Len(t, cfg.Auth.CSRFKey, 32, "development key is generated")
	assert.Len(t, cfg.Auth.SessionKey, 32)
}

func TestLoadConfigEnvironment(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 48)))
	t.Setenv("SCAN2TAP_CONFIG", "")
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_SESSION_TTL", "30m")
	t.Setenv("ALLOWED_ORIGINS", "https://scan2tap.com, https://www.scan2tap.com")
	t.Setenv("SESSION_KEY", key)
	t.Setenv("CSRF_KEY", "too-short")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("TAX_RATE", "0.2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AdminSessionTTL)
	assert.Equal(t, []string{"https://scan2tap.com", "https://www.scan2tap.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, []byte(strings.Repeat("k", 48)), cfg.Auth.SessionKey)
	assert.Len(t, cfg.Auth.CSRFKey, 32)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.InDelta(t, 0.2, cfg.Commerce.TaxRate, 1e-9)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan2tap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /var/lib/scan2tap/data.db
http:
  port: "7000"
logging:
  level: debug
  format: json
email:
  admin_address: ops@example.com
commerce:
  base_price: 19.5
`), 0o600))
	t.Setenv("SCAN2TAP_CONFIG", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/scan2tap/data.db", cfg.DBPath)
	assert.Equal(t, "7000", cfg.HTTP.Port)
	assert.Equal(t, "warn", cfg.Logging.Level, "environment wins over the file")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "ops@example.com", cfg.Email.AdminAddress)
	assert.InDelta(t, 19.5, cfg.Commerce.BasePrice, 1e-9)
}

func TestLoadConfigRejects(t *testing.T) {
	t.Setenv("SCAN2TAP_CONFIG", "")

	t.Run("invalid port falls back", func(t *testing.T) {
		t.Setenv("PORT", "http")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "8585", cfg.HTTP.Port)
	})
	t.Run("tax rate", func(t *testing.T) {
		t.Setenv("TAX_RATE", "1.5")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("SCAN2TAP_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
