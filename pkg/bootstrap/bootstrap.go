// Package bootstrap wires process-level configuration and logging.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultSchedule runs the cleanup cycle every 15 minutes.
	DefaultSchedule = "*/15 * * * *"
	// DefaultPageSize is the per_page value used when listing activities.
	DefaultPageSize = 200
	// DefaultOpsAddress serves /healthz and /metrics.
	DefaultOpsAddress = ":9090"
)

// Config holds runtime configuration for the janitor process.
type Config struct {
	StravaClientID     string
	StravaClientSecret string
	StravaRefreshToken string
	Schedule           string
	PageSize           int
	OpsAddress         string
	SentryDSN          string
	SentryEnvironment  string
}

// LoadConfig reads configuration from environment variables. The three
// Strava credentials are required; everything else has a default.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		StravaClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		StravaClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		StravaRefreshToken: os.Getenv("STRAVA_INITIAL_REFRESH_TOKEN"),
		Schedule:           getEnv("SYNC_SCHEDULE", DefaultSchedule),
		PageSize:           getIntEnv("STRAVA_PAGE_SIZE", DefaultPageSize),
		OpsAddress:         getEnv("OPS_ADDRESS", DefaultOpsAddress),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
		SentryEnvironment:  getEnv("SENTRY_ENVIRONMENT", "production"),
	}

	var missing []string
	if cfg.StravaClientID == "" {
		missing = append(missing, "STRAVA_CLIENT_ID")
	}
	if cfg.StravaClientSecret == "" {
		missing = append(missing, "STRAVA_CLIENT_SECRET")
	}
	if cfg.StravaRefreshToken == "" {
		missing = append(missing, "STRAVA_INITIAL_REFRESH_TOKEN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.PageSize < 1 || cfg.PageSize > 200 {
		return nil, fmt.Errorf("STRAVA_PAGE_SIZE must be between 1 and 200, got %d", cfg.PageSize)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetSlogHandlerOptions returns standard handler options with
// message/severity key mapping.
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
	component string
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

// WithAttrs implements slog.Handler
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newComp := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			newComp = a.Value.String()
		}
	}
	return &ComponentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: newComp,
	}
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	comp := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			comp = a.Value.String()
			return false
		}
		return true
	})

	if comp != "" {
		newMsg := fmt.Sprintf("[%s] %s", comp, r.Message)
		newRecord := slog.NewRecord(r.Time, r.Level, newMsg, r.PC)
		r.Attrs(func(a slog.Attr) bool {
			newRecord.AddAttrs(a)
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// LogLevelFromEnv maps LOG_LEVEL to a slog.Level, defaulting to info.
func LogLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a configured logger instance
func NewLogger(serviceName string) *slog.Logger {
	opts := GetSlogHandlerOptions(LogLevelFromEnv())
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}
