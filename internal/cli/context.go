package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haven-oss/haven/internal/config"
	"github.com/haven-oss/haven/internal/memory"
)

var (
	contextSession string
	contextLimit   int
	contextSearch  string
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Inspect durable session memory",
	Long: `Read the durable memory log written by past sessions.

Examples:
  haven context                      # recent entries per session
  haven context --session <id>       # one session's log
  haven context --search fractions   # search payloads`,
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVar(&contextSession, "session", "", "show a single session's log")
	contextCmd.Flags().IntVar(&contextLimit, "limit", 10, "max entries per session")
	contextCmd.Flags().StringVar(&contextSearch, "search", "", "search payloads (requires --session)")
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != "sqlite" {
		return fmt.Errorf("no durable storage configured (driver is %s)", cfg.Storage.Driver)
	}

	backend, err := memory.NewSQLiteBackend(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer backend.Close()

	if contextSearch != "" {
		if contextSession == "" {
			return fmt.Errorf("--search requires --session")
		}
		entries, err := backend.SearchLog(contextSession, contextSearch)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		printEntries(entries)
		return nil
	}

	if contextSession != "" {
		entries, err := backend.ListLog(contextSession, contextLimit)
		if err != nil {
			return fmt.Errorf("failed to read log: %w", err)
		}
		printEntries(entries)
		return nil
	}

	sessions, err := backend.ListSessions(10)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No stored sessions.")
		return nil
	}

	for _, id := range sessions {
		entries, err := backend.ListLog(id, contextLimit)
		if err != nil {
			return fmt.Errorf("failed to read log for %s: %w", id, err)
		}
		fmt.Printf("Session %s (%d recent entries):\n", id, len(entries))
		printEntries(entries)
		fmt.Println()
	}
	return nil
}

func printEntries(entries []memory.Entry) {
	if len(entries) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, e := range entries {
		fmt.Printf("  %4d  %s  %-8s  %-14s  %s\n",
			e.ID,
			e.Timestamp.Format(time.RFC3339),
			e.Tier,
			e.SourceTag,
			e.Payload,
		)
	}
}
