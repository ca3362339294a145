package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/safeguard")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_EMAILS", " Admin@X.com, ops@x.com ,")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg := Load()

	assert.Equal(t, "safeguard", cfg.JWTIssuer)
	assert.Equal(t, int64(3600), cfg.AccessTTLSeconds)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"admin@x.com", "ops@x.com"}, cfg.AdminEmails)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadPanicsWithoutSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	assert.Panics(t, func() { Load() })
}

func TestLoadClientDeviceCoordinates(t *testing.T) {
	t.Setenv("SAFEGUARD_API_URL", "http://api.local/")
	t.Setenv("DEVICE_LATITUDE", "52.52")
	t.Setenv("DEVICE_LONGITUDE", "not-a-number")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "x")

	cfg := LoadClient()

	assert.Equal(t, "http://api.local", cfg.APIURL)
	require.NotNil(t, cfg.DeviceLatitude)
	assert.InDelta(t, 52.52, *cfg.DeviceLatitude, 1e-9)
	assert.Nil(t, cfg.DeviceLongitude)
	assert.Equal(t, 15, cfg.HTTPTimeoutSeconds)
	assert.Equal(t, "warn", cfg.Log.Level)
}
