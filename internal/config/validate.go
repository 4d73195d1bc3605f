package config

import (
	"fmt"
	"strings"
	"time"

	havenErrors "github.com/haven-oss/haven/internal/errors"
)

// Validate checks a loaded configuration for contradictions.
func Validate(cfg *Config) error {
	var errs []string

	validChannels := map[string]bool{
		"edge":  true,
		"peer":  true,
		"local": true,
	}
	for _, ch := range cfg.Session.TransportPriority {
		if !validChannels[ch] {
			errs = append(errs, fmt.Sprintf("unknown transport channel: %s", ch))
		}
	}

	switch cfg.Session.StorageMode {
	case "local", "durable":
	default:
		errs = append(errs, fmt.Sprintf("invalid storage mode: %s", cfg.Session.StorageMode))
	}

	switch cfg.Storage.Driver {
	case "sqlite", "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid storage driver: %s", cfg.Storage.Driver))
	}

	if cfg.Session.ContextDepth < 0 {
		errs = append(errs, "context_depth must be non-negative")
	}
	if cfg.Memory.ImmediateLimit < 2 {
		errs = append(errs, "immediate_limit must be at least 2")
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"session.channel_timeout", cfg.Session.ChannelTimeout},
		{"edge.timeout", cfg.Edge.Timeout},
		{"memory.fold_interval", cfg.Memory.FoldInterval},
	} {
		if field.value == "" {
			continue
		}
		if _, err := time.ParseDuration(field.value); err != nil {
			errs = append(errs, fmt.Sprintf("invalid duration for %s: %s", field.name, field.value))
		}
	}

	validHookTypes := map[string]bool{"log": true, "audit": true}
	for _, h := range cfg.Hooks.Hooks {
		if h.Name == "" {
			errs = append(errs, "hook name is required")
		}
		if !validHookTypes[h.Type] {
			errs = append(errs, fmt.Sprintf("invalid hook type: %s", h.Type))
		}
		if h.Type == "audit" && h.Path == "" {
			errs = append(errs, fmt.Sprintf("audit hook %s requires a path", h.Name))
		}
	}

	if len(errs) > 0 {
		return havenErrors.New(havenErrors.CodeConfigInvalid,
			"config validation failed: "+strings.Join(errs, "; ")).
			WithSuggestion("Fix haven.yaml or delete it to use defaults")
	}
	return nil
}

// ChannelTimeout returns the parsed per-attempt timeout.
func (c *Config) ChannelTimeout() time.Duration {
	d, err := time.ParseDuration(c.Session.ChannelTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// FoldInterval returns the parsed background fold period.
func (c *Config) FoldInterval() time.Duration {
	d, err := time.ParseDuration(c.Memory.FoldInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// EdgeTimeout returns the parsed edge request timeout.
func (c *Config) EdgeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Edge.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
