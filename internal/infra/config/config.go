package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	CORSAllowedOrigins []string
	AnalysisDelay      time.Duration
	ScoreSeed          uint64
	SessionTTL         time.Duration
	GeoLookupURL       string
	GeoLookupTimeout   time.Duration
	GeoCacheSize       int
	GeoWarmup          bool
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaClientID      string
	OutboxCapacity     int
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
}

// Defaults returns the configuration used when no variables are set.
func Defaults() Config {
	return Config{
		Env:                "dev",
		HTTPAddr:           ":8080",
		CORSAllowedOrigins: []string{"*"},
		AnalysisDelay:      3 * time.Second,
		SessionTTL:         30 * time.Minute,
		GeoLookupURL:       "https://ipapi.co",
		GeoLookupTimeout:   2 * time.Second,
		GeoCacheSize:       1024,
		GeoWarmup:          true,
		KafkaClientID:      "hotelaudit",
		OutboxCapacity:     1000,
		OutboxPollInterval: 500 * time.Millisecond,
		RetryBackoff:       []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// LoadDotenv reads .env files into the environment without overriding set variables.
// A missing file is not an error.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// Load parses configuration from the current environment. On error the returned
// Config still holds the defaults so callers can continue with a warning.
func Load() (Config, error) {
	cfg := Defaults()
	var errs []error

	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	if origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS")); len(origins) > 0 {
		cfg.CORSAllowedOrigins = origins
	}
	cfg.GeoLookupURL = getEnv("GEO_LOOKUP_URL", cfg.GeoLookupURL)
	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopicPrefix = getEnv("KAFKA_TOPIC_PREFIX", "")
	cfg.KafkaClientID = getEnv("KAFKA_CLIENT_ID", cfg.KafkaClientID)

	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error
	cfg.AnalysisDelay, err = parseDurationEnv("AUDIT_ANALYSIS_DELAY", cfg.AnalysisDelay)
	collect(err)
	cfg.SessionTTL, err = parseDurationEnv("AUDIT_SESSION_TTL", cfg.SessionTTL)
	collect(err)
	cfg.GeoLookupTimeout, err = parseDurationEnv("GEO_LOOKUP_TIMEOUT", cfg.GeoLookupTimeout)
	collect(err)
	cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	collect(err)
	cfg.GeoCacheSize, err = parseIntEnv("GEO_CACHE_SIZE", cfg.GeoCacheSize)
	collect(err)
	cfg.OutboxCapacity, err = parseIntEnv("OUTBOX_CAPACITY", cfg.OutboxCapacity)
	collect(err)
	cfg.GeoWarmup, err = parseBoolEnv("GEO_WARMUP", cfg.GeoWarmup)
	collect(err)

	if raw := os.Getenv("AUDIT_SCORE_SEED"); raw != "" {
		seed, perr := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if perr != nil {
			collect(fmt.Errorf("invalid AUDIT_SCORE_SEED: %w", perr))
		} else {
			cfg.ScoreSeed = seed
		}
	}

	if raw := os.Getenv("RETRY_BACKOFF"); raw != "" {
		backoff, perr := parseDurationList(raw)
		if perr != nil {
			collect(perr)
		} else {
			cfg.RetryBackoff = backoff
		}
	}

	if cfg.AnalysisDelay < 0 {
		collect(errors.New("AUDIT_ANALYSIS_DELAY cannot be negative"))
		cfg.AnalysisDelay = Defaults().AnalysisDelay
	}
	if cfg.GeoCacheSize <= 0 {
		collect(errors.New("GEO_CACHE_SIZE must be positive"))
		cfg.GeoCacheSize = Defaults().GeoCacheSize
	}

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, nil
}

// KafkaEnabled reports whether lead events should be published.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return def, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return def, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

func parseDurationList(raw string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range splitList(raw) {
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", part, err)
		}
		out = append(out, d)
	}
	return out, nil
}
