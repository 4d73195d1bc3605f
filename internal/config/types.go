package config

// Config represents the main project configuration (haven.yaml)
type Config struct {
	Name    string        `yaml:"name" json:"name"`
	Version string        `yaml:"version" json:"version"`
	Session SessionConfig `yaml:"session" json:"session"`
	Edge    EdgeConfig    `yaml:"edge" json:"edge"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Memory  MemoryConfig  `yaml:"memory" json:"memory"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Hooks   HooksConfig   `yaml:"hooks" json:"hooks"`
}

// SessionConfig configures session behavior.
type SessionConfig struct {
	UseEncryption     bool     `yaml:"use_encryption" json:"use_encryption"`
	TransportPriority []string `yaml:"transport_priority" json:"transport_priority"` // edge, peer, local
	StorageMode       string   `yaml:"storage_mode" json:"storage_mode"`             // local, durable
	ContextDepth      int      `yaml:"context_depth" json:"context_depth"`
	ChannelTimeout    string   `yaml:"channel_timeout" json:"channel_timeout"` // per-attempt bound, e.g. "5s"
}

// EdgeConfig configures the remote stateless processing endpoint.
type EdgeConfig struct {
	URL     string `yaml:"url" json:"url"`
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// StorageConfig configures the durable backend.
type StorageConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, memory
	Path   string `yaml:"path" json:"path"`     // file path for sqlite
}

// MemoryConfig configures the tiered store.
type MemoryConfig struct {
	ImmediateLimit int    `yaml:"immediate_limit" json:"immediate_limit"` // entries before folding
	FoldInterval   string `yaml:"fold_interval" json:"fold_interval"`     // background fold period
	MirrorRetries  int    `yaml:"mirror_retries" json:"mirror_retries"`   // durable mirror attempts
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"` // debug, info, warn, error
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// MetricsConfig configures the JSONL metrics exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // log, audit
	Events   []string `yaml:"events" json:"events"` // event types to match
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Path     string   `yaml:"path,omitempty" json:"path,omitempty"`   // for audit hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"` // for log hooks
}
