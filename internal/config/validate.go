package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 characters")
	}

	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1-65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	if c.Dialogue.ConfidenceThreshold < 0 || c.Dialogue.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Sprintf("DIALOGUE_CONFIDENCE_THRESHOLD must be within [0,1], got %g", c.Dialogue.ConfidenceThreshold))
	}
	if c.Dialogue.HistoryWindow < 1 {
		errs = append(errs, "DIALOGUE_HISTORY_WINDOW must be positive")
	}
	if c.LLM.ClassifyTimeout <= 0 || c.LLM.ChatTimeout <= 0 {
		errs = append(errs, "LLM_CLASSIFY_TIMEOUT and LLM_CHAT_TIMEOUT must be positive")
	}

	switch c.History.Driver {
	case "postgres":
	case "sqlite":
		if c.History.SQLitePath == "" {
			errs = append(errs, "HISTORY_SQLITE_PATH is required when HISTORY_DRIVER=sqlite")
		}
	default:
		errs = append(errs, fmt.Sprintf("HISTORY_DRIVER must be postgres or sqlite, got %q", c.History.Driver))
	}

	if c.XMPP.Enabled {
		if c.XMPP.ComponentSecret == "" {
			errs = append(errs, "XMPP_COMPONENT_SECRET is required when XMPP_ENABLED=true")
		}
		if !c.NATS.Enabled() {
			errs = append(errs, "NATS_URL is required when XMPP_ENABLED=true")
		}
	}

	// Missing provider key only degrades classification to the rule matcher.
	if !c.LLM.Enabled() {
		slog.Warn("LLM_API_KEY is empty, intent classification runs on keyword rules only")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
