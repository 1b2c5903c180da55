package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// RuleSetting is one rule-catalog entry sourced from configuration.
type RuleSetting struct {
	Window      time.Duration
	MaxRequests int
}

// Config captures runtime configuration sourced from environment variables.
// Everything here is static: loaded once at start-up and never mutated.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string

	// Operator API auth. JWTSecret signs operator tokens and is required
	// outside development.
	JWTSecret         string
	AdminUser         string
	AdminPasswordHash string

	// Rule catalog overrides keyed by class name, parsed from
	// WARDEN_RULE_<CLASS>="<window>:<max>".
	RuleOverrides map[string]RuleSetting

	BurstWindow        time.Duration
	BurstCeiling       int
	BurstBlockDuration time.Duration

	FailedAuthWindow    time.Duration
	FailedAuthThreshold int

	// Notification targets for critical alerts: shoutrrr URLs or plain
	// http(s) webhook URLs, comma-separated.
	NotifyURLs []string

	AlertRetention time.Duration
	EventRetention time.Duration
}

// Load reads env vars and falls back to defaults so the server can boot with
// zero configuration in development. Configuration errors fail here, never
// at request time.
func Load() (Config, error) {
	cfg := Config{
		Environment:  getEnv("WARDEN_ENV", "development"),
		HTTPPort:     getEnv("WARDEN_HTTP_PORT", "8080"),
		DatabasePath: getEnv("WARDEN_DB_PATH", filepath.Join("data", "warden.db")),

		JWTSecret:         os.Getenv("WARDEN_JWT_SECRET"),
		AdminUser:         getEnv("WARDEN_ADMIN_USER", "admin"),
		AdminPasswordHash: os.Getenv("WARDEN_ADMIN_PASSWORD_HASH"),

		BurstWindow:        getEnvDuration("WARDEN_BURST_WINDOW", 10*time.Second),
		BurstCeiling:       getEnvInt("WARDEN_BURST_CEILING", 50),
		BurstBlockDuration: getEnvDuration("WARDEN_BURST_BLOCK_DURATION", time.Hour),

		FailedAuthWindow:    getEnvDuration("WARDEN_FAILED_AUTH_WINDOW", 15*time.Minute),
		FailedAuthThreshold: getEnvInt("WARDEN_FAILED_AUTH_THRESHOLD", 5),

		AlertRetention: getEnvDuration("WARDEN_ALERT_RETENTION", 7*24*time.Hour),
		EventRetention: getEnvDuration("WARDEN_EVENT_RETENTION", 30*24*time.Hour),
	}

	if urls := os.Getenv("WARDEN_NOTIFY_URLS"); urls != "" {
		for _, u := range strings.Split(urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.NotifyURLs = append(cfg.NotifyURLs, u)
			}
		}
	}

	overrides, err := parseRuleOverrides()
	if err != nil {
		return Config{}, err
	}
	cfg.RuleOverrides = overrides

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("WARDEN_JWT_SECRET is required in production")
	}
	if cfg.BurstWindow <= 0 || cfg.BurstCeiling < 1 {
		return Config{}, fmt.Errorf("burst settings invalid: window=%s ceiling=%d", cfg.BurstWindow, cfg.BurstCeiling)
	}
	if cfg.FailedAuthWindow <= 0 || cfg.FailedAuthThreshold < 1 {
		return Config{}, fmt.Errorf("failed-auth settings invalid: window=%s threshold=%d", cfg.FailedAuthWindow, cfg.FailedAuthThreshold)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// parseRuleOverrides scans WARDEN_RULE_* variables. The value format is
// "<window>:<max>", e.g. WARDEN_RULE_AUTH="15m:5".
func parseRuleOverrides() (map[string]RuleSetting, error) {
	const prefix = "WARDEN_RULE_"
	overrides := make(map[string]RuleSetting)

	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}
		key, val, ok := strings.Cut(kv, "=")
		if !ok || val == "" {
			continue
		}
		class := strings.ToLower(strings.TrimPrefix(key, prefix))

		winPart, maxPart, ok := strings.Cut(val, ":")
		if !ok {
			return nil, fmt.Errorf("rule override %s: want \"<window>:<max>\", got %q", key, val)
		}
		window, err := time.ParseDuration(strings.TrimSpace(winPart))
		if err != nil {
			return nil, fmt.Errorf("rule override %s: bad window: %w", key, err)
		}
		max, err := strconv.Atoi(strings.TrimSpace(maxPart))
		if err != nil {
			return nil, fmt.Errorf("rule override %s: bad max requests: %w", key, err)
		}
		overrides[class] = RuleSetting{Window: window, MaxRequests: max}
	}

	return overrides, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}

	return fallback
}
