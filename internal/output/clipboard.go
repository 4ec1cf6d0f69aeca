// Package output applies answer commit side effects (clipboard).
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/mward/glance/internal/config"
)

// Committer copies answer text to the clipboard via the configured command.
type Committer struct {
	argv         []string
	copyStripped bool
	logger       *slog.Logger
}

// NewCommitter constructs an answer committer from runtime config.
func NewCommitter(cfg config.Config, logger *slog.Logger) *Committer {
	return &Committer{
		argv:         cfg.Clipboard.Argv,
		copyStripped: cfg.Output.CopyStripped,
		logger:       logger,
	}
}

// Commit writes answer text to the clipboard. When copy_stripped is set, a
// single fenced code block is reduced to its inner code before copying.
func (c *Committer) Commit(ctx context.Context, answer string) error {
	if answer == "" {
		return nil
	}

	payload := answer
	if c.copyStripped {
		payload = StripFences(answer)
	}

	clipboardCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(clipboardCtx, c.argv, payload); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("answer copied to clipboard", "chars", len(payload), "stripped", c.copyStripped)
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
