package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the backend service configuration loaded from environment variables.
type Config struct {
	DatabaseURL       string
	JWTSecret         string
	JWTIssuer         string
	AccessTTLSeconds  int64
	RefreshTTLSeconds int64
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	MediaStoragePath  string
	HealthDiskPath    string
	MigrationsDir     string
	CorsOrigins       []string
	AdminEmails       []string
	AuthRateLimit     string
	TrustedProxies    []string
	Port              string
	Log               LogConfig
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// ClientConfig configures the safeguard CLI.
type ClientConfig struct {
	APIURL             string
	TokenFile          string
	NominatimURL       string
	NominatimUserAgent string
	GeoIPDBPath        string
	GeoIPAddress       string
	PublicIPURL        string
	DeviceLatitude     *float64
	DeviceLongitude    *float64
	HTTPTimeoutSeconds int
	Log                LogConfig
}

func Load() Config {
	return Config{
		DatabaseURL:       mustEnv("DATABASE_URL"),
		JWTSecret:         mustEnv("JWT_SECRET"),
		JWTIssuer:         envOr("JWT_ISSUER", "safeguard"),
		AccessTTLSeconds:  int64(envOrInt("ACCESS_TTL_SECONDS", 3600)),
		RefreshTTLSeconds: int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		RedisAddr:         envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     envOr("REDIS_PASSWORD", ""),
		RedisDB:           envOrInt("REDIS_DB", 0),
		MediaStoragePath:  envOr("MEDIA_STORAGE_PATH", "storage/media"),
		HealthDiskPath:    envOr("HEALTH_DISK_PATH", "storage/media"),
		MigrationsDir:     envOr("MIGRATIONS_DIR", ""),
		CorsOrigins:       parseCSV(envOr("CORS_ORIGINS", "")),
		AdminEmails:       parseCSV(strings.ToLower(envOr("ADMIN_EMAILS", ""))),
		AuthRateLimit:     envOr("AUTH_RATE_LIMIT", "30-M"),
		TrustedProxies:    parseCSV(envOr("TRUSTED_PROXIES", "")),
		Port:              envOr("PORT", "8080"),
		Log:               loadLog("info", "json"),
	}
}

func LoadClient() ClientConfig {
	home, _ := os.UserHomeDir()
	return ClientConfig{
		APIURL:             strings.TrimRight(envOr("SAFEGUARD_API_URL", "http://localhost:8080"), "/"),
		TokenFile:          envOr("SAFEGUARD_TOKEN_FILE", filepath.Join(home, ".safeguard", "session.json")),
		NominatimURL:       strings.TrimRight(envOr("NOMINATIM_URL", "https://nominatim.openstreetmap.org"), "/"),
		NominatimUserAgent: envOr("NOMINATIM_USER_AGENT", "safeguard-cli/1.0"),
		GeoIPDBPath:        envOr("GEOIP_DB_PATH", ""),
		GeoIPAddress:       envOr("GEOIP_IP", ""),
		PublicIPURL:        envOr("PUBLIC_IP_URL", "https://api.ipify.org"),
		DeviceLatitude:     envFloat("DEVICE_LATITUDE"),
		DeviceLongitude:    envFloat("DEVICE_LONGITUDE"),
		HTTPTimeoutSeconds: envOrInt("HTTP_TIMEOUT_SECONDS", 15),
		Log:                loadLog("warn", "console"),
	}
}

func loadLog(level, format string) LogConfig {
	return LogConfig{
		Level:  envOr("LOG_LEVEL", level),
		Format: envOr("LOG_FORMAT", format),
		File:   envOr("LOG_FILE", ""),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string) *float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
