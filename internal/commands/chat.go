package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/supportchat/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the support assistant.

The conversation lives in memory for the length of the session.
Ctrl+S opens the settings panel where the system instruction can be
edited and the chat reset. Press Esc or Ctrl+C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(deps)
		},
	}
}

func runChat(deps *Dependencies) error {
	sess, err := newSession(deps)
	if err != nil {
		return err
	}
	defer sess.Close()

	if sess.cfg.TUITheme != "" && !tui.ApplyTheme(sess.cfg.TUITheme) {
		return fmt.Errorf("unknown theme %q", sess.cfg.TUITheme)
	}

	return deps.TUI.RunChat(sess.pipeline, sess.cfg.Endpoint)
}
