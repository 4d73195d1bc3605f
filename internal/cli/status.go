package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haven-oss/haven/internal/config"
	"github.com/haven-oss/haven/internal/memory"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and storage status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	fmt.Printf("haven %s\n", Version)
	fmt.Println("--------------------")
	fmt.Printf("Encryption:  %v\n", cfg.Session.UseEncryption)
	fmt.Printf("Channels:    %v\n", cfg.Session.TransportPriority)
	if cfg.Edge.URL != "" {
		fmt.Printf("Edge:        %s\n", cfg.Edge.URL)
	} else {
		fmt.Println("Edge:        (not configured)")
	}
	fmt.Printf("Storage:     %s (%s mode)\n", cfg.Storage.Driver, cfg.Session.StorageMode)

	if cfg.Storage.Driver != "sqlite" {
		return nil
	}

	if _, err := os.Stat(cfg.Storage.Path); err != nil {
		fmt.Printf("Database:    %s (not created yet)\n", cfg.Storage.Path)
		return nil
	}

	backend, err := memory.NewSQLiteBackend(cfg.Storage.Path)
	if err != nil {
		fmt.Printf("Database:    %s (unavailable: %v)\n", cfg.Storage.Path, err)
		return nil
	}
	defer backend.Close()

	sessions, err := backend.ListSessions(100)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	fmt.Printf("Database:    %s\n", cfg.Storage.Path)
	fmt.Printf("Sessions:    %d stored\n", len(sessions))
	return nil
}
