package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Load loads the main project configuration
func Load(dir string) (*Config, error) {
	configFile := filepath.Join(dir, "haven.yaml")

	content, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if no file exists
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values
func interpolateEnv(content string) string {
	// Match ${env.VAR} pattern
	envPattern := regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	content = envPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // keep original if not found
	})

	// Match ${VAR} pattern
	varPattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	content = varPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return content
}

// DefaultConfig returns the configuration used when no haven.yaml exists.
func DefaultConfig() *Config {
	return &Config{
		Name:    "haven",
		Version: "1.0",
		Session: SessionConfig{
			UseEncryption:     true,
			TransportPriority: []string{"edge", "peer", "local"},
			StorageMode:       "durable",
			ContextDepth:      20,
			ChannelTimeout:    "5s",
		},
		Edge: EdgeConfig{
			Timeout: "5s",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   ".haven/haven.db",
		},
		Memory: MemoryConfig{
			ImmediateLimit: 50,
			FoldInterval:   "1m",
			MirrorRetries:  3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "haven"
	}
	if len(cfg.Session.TransportPriority) == 0 {
		cfg.Session.TransportPriority = []string{"edge", "peer", "local"}
	}
	if cfg.Session.StorageMode == "" {
		cfg.Session.StorageMode = "durable"
	}
	if cfg.Session.ContextDepth == 0 {
		cfg.Session.ContextDepth = 20
	}
	if cfg.Session.ChannelTimeout == "" {
		cfg.Session.ChannelTimeout = "5s"
	}
	if cfg.Edge.Timeout == "" {
		cfg.Edge.Timeout = "5s"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = ".haven/haven.db"
	}
	if cfg.Memory.ImmediateLimit == 0 {
		cfg.Memory.ImmediateLimit = 50
	}
	if cfg.Memory.FoldInterval == "" {
		cfg.Memory.FoldInterval = "1m"
	}
	if cfg.Memory.MirrorRetries == 0 {
		cfg.Memory.MirrorRetries = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
