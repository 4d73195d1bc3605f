package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a haven workspace",
	Long: `Initialize a haven workspace: local storage directories and a
haven.yaml with commented defaults. Everything stays under the target
directory; nothing is created elsewhere.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

const configTemplate = `name: haven
version: "1.0"

session:
  use_encryption: true
  transport_priority: [edge, peer, local]
  storage_mode: durable
  context_depth: 10
  channel_timeout: 5s

edge:
  url: ""          # leave empty to skip the edge channel
  timeout: 5s

storage:
  driver: sqlite   # sqlite or memory
  path: .haven/haven.db

memory:
  immediate_limit: 50
  fold_interval: 1m
  mirror_retries: 3

logging:
  level: info

metrics:
  enabled: false
  path: .haven/metrics.jsonl

hooks:
  enabled: false
  hooks: []
`

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	for _, dir := range []string{".haven", ".haven/logs"} {
		if err := os.MkdirAll(filepath.Join(target, dir), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfgPath := filepath.Join(target, "haven.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("haven.yaml already exists in %s", target)
	}
	if err := os.WriteFile(cfgPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write haven.yaml: %w", err)
	}

	fmt.Printf("Initialized haven workspace in %s\n", target)
	fmt.Println("Edit haven.yaml to configure an edge endpoint, then run: haven chat")
	return nil
}
