package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2/google"
)

const (
	defaultDeepDiveTopN  = 5
	defaultLagDays       = 3
	defaultBatchSize     = 50
	defaultDealChunkSize = 200
	defaultTraceName     = "patotta-stone-function-revenue"

	// The Data API accepts at most 50 ids per videos.list call.
	maxBatchSize = 50
)

var (
	DefaultWonKeywords  = []string{"ganho", "won", "fechado"}
	DefaultLostKeywords = []string{"perdido", "lost"}
)

type Config struct {
	ServiceName string
	DSN         string

	// ProjectID is only required by tracing.
	ProjectID     string
	TraceName     string
	// TraceInsecure disables TLS towards the collector, for a local one.
	TraceInsecure bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenURL     string

	DeepDiveTopN  int
	LagDays       int
	BatchSize     int
	DealChunkSize int

	WonKeywords  []string
	LostKeywords []string
}

// Load reads the configuration from the environment.
// If an .env file exists in the working directory it is loaded first, for local development.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("godotenv.Load: %w", err)
		}
	}

	cfg := &Config{
		ServiceName:        getEnv("SERVICE_NAME", "local"),
		DSN:                os.Getenv("DSN"),
		ProjectID:          os.Getenv("GOOGLE_CLOUD_PROJECT"),
		TraceName:          getEnv("NAME", defaultTraceName),
		TraceInsecure:      os.Getenv("LOCAL_ONLY") == "true",
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleTokenURL:     getEnv("GOOGLE_TOKEN_URL", google.Endpoint.TokenURL),
		WonKeywords:        getList("STAGE_WON_KEYWORDS", DefaultWonKeywords),
		LostKeywords:       getList("STAGE_LOST_KEYWORDS", DefaultLostKeywords),
	}

	var missing []string
	if cfg.DSN == "" {
		missing = append(missing, "DSN")
	}
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if cfg.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s is not set", strings.Join(missing, ", "))
	}

	var err error
	if cfg.DeepDiveTopN, err = getInt("DEEP_DIVE_TOP_N", defaultDeepDiveTopN); err != nil {
		return nil, err
	}
	if cfg.LagDays, err = getInt("ANALYTICS_LAG_DAYS", defaultLagDays); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = getInt("VIDEO_BATCH_SIZE", defaultBatchSize); err != nil {
		return nil, err
	}
	if cfg.DealChunkSize, err = getInt("DEAL_CHUNK_SIZE", defaultDealChunkSize); err != nil {
		return nil, err
	}

	// Analytics data older than two days is considered consolidated, four days is the
	// furthest we are willing to lag behind.
	cfg.LagDays = min(max(cfg.LagDays, 2), 4)
	if cfg.BatchSize <= 0 || cfg.BatchSize > maxBatchSize {
		cfg.BatchSize = maxBatchSize
	}
	if cfg.DeepDiveTopN < 0 {
		return nil, errors.New("DEEP_DIVE_TOP_N must not be negative")
	}
	if cfg.DealChunkSize <= 0 {
		cfg.DealChunkSize = defaultDealChunkSize
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

// getList splits a comma separated variable, dropping blank entries.
func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
