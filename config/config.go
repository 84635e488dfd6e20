// Package config loads the externally supplied configuration surface
// from the environment, with the documented defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"pc-inventory/directory"
)

const (
	// BackendPostgres is the production store; BackendMemory keeps
	// everything in process for development and demos.
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	ListenAddr     string
	LogLevel       string
	StoreBackend   string
	MaxUploadBytes int64

	DBName     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string

	SessionTTL    time.Duration
	AdminUsername string
	AdminPassword string

	Directory directory.Config
}

// Load reads the environment. Only values that make the service
// unusable are errors; everything else has a default.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     envOr("LISTEN_ADDR", ":8000"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		StoreBackend:   envOr("STORE_BACKEND", BackendPostgres),
		MaxUploadBytes: envInt64Or("MAX_UPLOAD_BYTES", 10<<20),

		DBName:     envOr("DB_NAME", "pc_inventory"),
		DBHost:     envOr("DB_HOST", "localhost"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     envOr("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),

		SessionTTL:    envDurationOr("SESSION_TTL", time.Hour),
		AdminUsername: envOr("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		Directory: directory.Config{
			ServerURI:     os.Getenv("LDAP_SERVER_URI"),
			BindDN:        os.Getenv("LDAP_BIND_DN"),
			BindPassword:  os.Getenv("LDAP_BIND_PASSWORD"),
			UserBaseDN:    os.Getenv("LDAP_USER_BASE_DN"),
			LoginAttr:     envOr("LDAP_LOGIN_ATTR", "sAMAccountName"),
			AttrFirstName: envOr("LDAP_ATTR_FIRST_NAME", "givenName"),
			AttrLastName:  envOr("LDAP_ATTR_LAST_NAME", "sn"),
			AttrEmail:     envOr("LDAP_ATTR_EMAIL", "mail"),
			Timeout:       envDurationOr("LDAP_TIMEOUT", 10*time.Second),
			CacheTTL:      envDurationOr("LDAP_CACHE_TTL", time.Hour),
		},
	}

	switch cfg.StoreBackend {
	case BackendPostgres, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required")
	}
	if cfg.Directory.Enabled() && cfg.Directory.UserBaseDN == "" {
		return nil, fmt.Errorf("LDAP_USER_BASE_DN is required when LDAP_SERVER_URI is set")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
