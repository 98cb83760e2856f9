// Package config loads application settings from .env files and the environment.
// file: config/config.go
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultSchool is the only school offered when SCHOOLS is not set.
const DefaultSchool = "University of California Riverside"

// Config holds every setting read at startup.
type Config struct {
	Env            string
	Port           string
	ApplicationURL string

	StorageDriver string // bolt, sqlite or memory
	StoragePath   string

	SessionSecret string
	Schools       []string
	HashPasswords bool

	MetricsEnabled   bool
	MetricsNamespace string
	TracingEnabled   bool

	LogDir string
}

// Load reads the given .env files (default ".env") and then the process
// environment. Missing .env files are not an error; variables already set in
// the environment win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		ApplicationURL:   getEnv("APPLICATION_URL", "http://localhost:8080"),
		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", "bolt")),
		StoragePath:      getEnv("STORAGE_PATH", "eventlink.db"),
		SessionSecret:    getEnv("SESSION_SECRET", "secret"),
		Schools:          splitList(getEnv("SCHOOLS", DefaultSchool)),
		HashPasswords:    getBool("HASH_PASSWORDS", false),
		MetricsEnabled:   getBool("METRICS_ENABLED", false),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "EventLink"),
		TracingEnabled:   getBool("TRACING_ENABLED", false),
		LogDir:           os.Getenv("LOG_DIR"),
	}

	switch cfg.StorageDriver {
	case "bolt", "sqlite", "memory":
	default:
		return nil, errors.New("config: STORAGE_DRIVER must be bolt, sqlite or memory")
	}
	if cfg.Env == "production" && cfg.SessionSecret == "secret" {
		return nil, errors.New("config: SESSION_SECRET must be set in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// splitList turns "a; b;c" into ["a" "b" "c"]. School names contain commas
// rarely but spaces often, so the separator is a semicolon.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
