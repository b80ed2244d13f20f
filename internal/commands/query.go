package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/supportchat/internal/tui"
)

// runQuery sends a single turn through the pipeline and prints the reply.
// A failed request still prints the fallback reply, then returns the error.
func runQuery(cmd *cobra.Command, deps *Dependencies, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	sess, err := newSession(deps)
	if err != nil {
		return err
	}
	defer sess.Close()

	stderr := cmd.ErrOrStderr()
	if sess.cfg.Verbose {
		fmt.Fprintf(stderr, "[verbose] Session: %s\n", sess.id)
		fmt.Fprintf(stderr, "[verbose] Endpoint: %s\n", sess.client.Endpoint())
		fmt.Fprintf(stderr, "[verbose] History mode: %s\n", sess.cfg.HistoryMode)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var spin *spinner
	if isTerminal(stderr) {
		spin = newSpinner(stderr, "Waiting for the assistant")
		spin.start()
	}

	start := time.Now()
	outcome, _ := sess.pipeline.Send(ctx, prompt)
	elapsed := time.Since(start)

	if spin != nil {
		if outcome.Failed {
			spin.stopWithError()
		} else {
			spin.stopWithSuccess("Done")
		}
	}

	if sess.cfg.Verbose {
		fmt.Fprintf(stderr, "[verbose] Request took %s\n", elapsed.Round(time.Millisecond))
	}

	reply := outcome.Reply.Content
	fmt.Fprintln(cmd.OutOrStdout(), reply)

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(reply+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Fprintf(stderr, "Reply saved to %s\n", outputFlag)
	}

	if !outcome.Failed && (copyFlag || sess.cfg.CopyToClipboard) {
		if err := deps.Clipboard(reply); err != nil {
			sess.logger.Warn("clipboard copy failed", zap.Error(err))
			fmt.Fprintf(stderr, "Warning: failed to copy to clipboard: %v\n", err)
		}
	}

	if outcome.Failed {
		fmt.Fprintln(stderr, tui.FormatError(outcome.Err))
		return fmt.Errorf("chat request failed: %w", outcome.Err)
	}
	return nil
}
