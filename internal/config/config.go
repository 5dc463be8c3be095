package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// SchemaTarget selects which schema namespace the writer and readers address.
type SchemaTarget string

const (
	TargetProd SchemaTarget = "prod"
	TargetTest SchemaTarget = "test"
)

// SchemaName maps a target to its Postgres schema name.
func (t SchemaTarget) SchemaName() string {
	if t == TargetTest {
		return "hcl_test"
	}
	return "hcl"
}

// Config holds all runtime configuration. Loaded once at startup; no
// process-global mutable state.
type Config struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	SchemaTarget SchemaTarget

	UpdateSeasons  []int
	UpdateWeeks    []int
	BatchSize      int
	RetryAttempts  int
	BatchTimeout   time.Duration
	RunSoftCap     time.Duration

	RedisURL        string
	RESTPort        string
	NFLVerseBaseURL string

	RefreshCronEnabled bool
	RefreshCronSpec    string
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "nfl_analytics"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),

		BatchSize:     getEnvInt("UPDATE_BATCH_SIZE", 1000),
		RetryAttempts: getEnvInt("UPDATE_RETRY_ATTEMPTS", 1),
		BatchTimeout:  time.Duration(getEnvInt("UPDATE_TIMEOUT_SECONDS", 60)) * time.Second,
		RunSoftCap:    30 * time.Minute,

		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		RESTPort:        getEnv("REST_PORT", "8090"),
		NFLVerseBaseURL: getEnv("NFLVERSE_BASE_URL", "https://github.com/nflverse/nflverse-data/releases/download"),

		RefreshCronEnabled: getEnv("REFRESH_CRON_ENABLED", "true") == "true",
		RefreshCronSpec:    getEnv("REFRESH_CRON_SPEC", "0 4 * * *"),
	}

	switch target := getEnv("SCHEMA_TARGET", "prod"); target {
	case "prod":
		cfg.SchemaTarget = TargetProd
	case "test":
		cfg.SchemaTarget = TargetTest
	default:
		return Config{}, fmt.Errorf("invalid SCHEMA_TARGET %q (want prod or test)", target)
	}

	seasons, err := parseIntList(getEnv("UPDATE_SEASONS", strconv.Itoa(CurrentSeason())))
	if err != nil {
		return Config{}, fmt.Errorf("invalid UPDATE_SEASONS: %w", err)
	}
	cfg.UpdateSeasons = seasons

	if raw := os.Getenv("UPDATE_WEEKS"); raw != "" {
		weeks, err := parseIntList(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid UPDATE_WEEKS: %w", err)
		}
		cfg.UpdateWeeks = weeks
	}

	return cfg, nil
}

// DSN builds the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword),
		c.DBHost, c.DBPort, c.DBName)
}

// CurrentSeason returns the NFL season that is current as of now.
// Seasons roll over in March, after the Super Bowl.
func CurrentSeason() int {
	now := time.Now()
	if now.Month() < time.March {
		return now.Year() - 1
	}
	return now.Year()
}

func parseIntList(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
