package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haven-oss/haven/internal/config"
	"github.com/haven-oss/haven/internal/session"
)

var (
	chatEdgeURL string
	chatNoEnc   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Open an ephemeral session and exchange messages interactively.

Replies are attempted over the configured channel chain (edge, peer,
local) and always answered, falling back to on-device synthesis when
no remote channel responds. "/mood <feeling>" shades local replies;
end the session with Ctrl-D or /quit. Keys and in-memory context are
wiped on exit.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatEdgeURL, "edge", "", "override the edge endpoint URL")
	chatCmd.Flags().BoolVar(&chatNoEnc, "no-encryption", false, "disable wire encryption for this session")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if chatEdgeURL != "" {
		cfg.Edge.URL = chatEdgeURL
	}
	if chatNoEnc {
		cfg.Session.UseEncryption = false
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	sess, err := session.Open(session.Options{
		Config:  cfg,
		Bus:     rt.bus,
		Logger:  rt.logger,
		Metrics: rt.metrics,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Printf("Session %s opened", sess.ID()[:8])
	if cfg.Session.UseEncryption {
		fmt.Print(" (encrypted)")
	}
	fmt.Println()
	if sess.Degraded() {
		fmt.Println("Warning: durable storage unavailable, this session is memory-only.")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		sess.Close()
		rt.close()
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		if mood, ok := strings.CutPrefix(line, "/mood "); ok {
			sess.SetMood(strings.TrimSpace(mood))
			fmt.Println("Noted.")
			continue
		}

		reply, err := sess.Send(cmd.Context(), line, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		tag := reply.Channel
		if reply.Local {
			tag = "local"
		}
		fmt.Printf("[%s] %s\n", tag, reply.Text)
	}

	fmt.Println("Session closed.")
	return scanner.Err()
}
