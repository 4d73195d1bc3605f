package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/haven-oss/haven/internal/config"
	"github.com/haven-oss/haven/internal/event"
	"github.com/haven-oss/haven/internal/telemetry"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "haven",
	Short: "Private on-device session and memory core",
	Long: `haven - conversations that stay on your device.

Ephemeral encrypted sessions over a transport fallback chain
(edge, peer, local) with tiered session memory that never
leaves the machine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./haven.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("haven")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// runtime bundles the ambient collaborators every command builds the same
// way: logger, metrics with optional exporter, and the hook bus.
type runtime struct {
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	bus     *event.Bus
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	logger := telemetry.NewLogger(verbose)
	if cfg.Logging.File != "" {
		if err := logger.WithFile(cfg.Logging.File); err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}

	metrics := telemetry.NewMetrics()
	if cfg.Metrics.Enabled && cfg.Metrics.Path != "" {
		exporter, err := telemetry.NewJSONFileExporter(cfg.Metrics.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open metrics file: %w", err)
		}
		metrics.SetExporter(exporter)
	}

	bus := event.NewBus(logger)
	if cfg.Hooks.Enabled {
		for _, h := range cfg.Hooks.Hooks {
			registerHook(bus, h, logger)
		}
	}

	return &runtime{logger: logger, metrics: metrics, bus: bus}, nil
}

func registerHook(bus *event.Bus, h config.HookConfig, logger *telemetry.Logger) {
	events := make([]event.EventType, 0, len(h.Events))
	for _, e := range h.Events {
		events = append(events, event.EventType(e))
	}

	switch h.Type {
	case "log":
		bus.Register(event.NewLogHook(h.Name, events, logger, h.Level))
	case "audit":
		bus.Register(event.NewAuditHook(h.Name, h.Path, events, h.Blocking))
	}
}

func (r *runtime) close() {
	r.metrics.Flush("shutdown", nil)
	r.logger.Close()
}
