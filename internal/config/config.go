package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/juev/ledger-api/internal/include"
)

// DefaultJournalPath is used when neither a flag nor the environment names
// a journal.
const DefaultJournalPath = "~/ledger-data/main.ledger"

type Config struct {
	// Journal
	JournalPath string
	Limits      include.Limits

	// HTTP server
	HTTPAddr        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	ServiceName     string
	AllowedOrigins  []string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and the environment. Values that fail to
// parse fall back to their defaults; Validate reports values out of range.
func Load() *Config {
	_ = godotenv.Load()

	defaults := include.DefaultLimits()

	return &Config{
		JournalPath: JournalPath(""),
		Limits: include.Limits{
			MaxFileSizeBytes: getEnvInt64("JOURNAL_MAX_FILE_SIZE", defaults.MaxFileSizeBytes),
			MaxIncludeDepth:  int(getEnvInt64("JOURNAL_MAX_INCLUDE_DEPTH", int64(defaults.MaxIncludeDepth))),
		},

		HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		ServiceName:     getEnv("SERVICE_NAME", "ledger-api"),
		AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// JournalPath picks the journal file: explicit when set, then LEDGER_FILE,
// then HLEDGER_JOURNAL, then DefaultJournalPath. A leading ~ is expanded.
func JournalPath(explicit string) string {
	path := explicit
	for _, key := range []string{"LEDGER_FILE", "HLEDGER_JOURNAL"} {
		if path != "" {
			break
		}
		path = os.Getenv(key)
	}
	if path == "" {
		path = DefaultJournalPath
	}
	return include.ExpandHome(path)
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.JournalPath) == "" {
		errors = append(errors, "journal path cannot be empty")
	}

	if _, port, err := net.SplitHostPort(c.HTTPAddr); err != nil {
		errors = append(errors, fmt.Sprintf("invalid HTTP address '%s': %v", c.HTTPAddr, err))
	} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		errors = append(errors, fmt.Sprintf("invalid HTTP port '%s': must be between 0 and 65535", port))
	}

	if c.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be positive", c.RequestTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if c.ServiceName == "" {
		errors = append(errors, "service name cannot be empty")
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'json' or 'console'", c.LogFormat))
	}

	if c.Limits.MaxFileSizeBytes <= 0 {
		errors = append(errors, fmt.Sprintf("invalid max file size %d: must be positive", c.Limits.MaxFileSizeBytes))
	}
	if c.Limits.MaxIncludeDepth <= 0 {
		errors = append(errors, fmt.Sprintf("invalid max include depth %d: must be positive", c.Limits.MaxIncludeDepth))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
