// Package commands provides CLI commands for supportchat.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/supportchat/internal/models"
)

var (
	// Global flags
	endpointFlag    string
	systemFlag      string
	personaFlag     string
	historyModeFlag string
	verboseFlag     bool

	// One-shot flags
	outputFlag string
	fileFlag   string
	copyFlag   bool

	// Version info (set at build time)
	Version   = models.Version
	BuildTime = "unknown"
)

// NewRootCmd builds the command tree. A nil deps uses the production
// implementations.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}

	rootCmd := &cobra.Command{
		Use:   "supportchat [prompt]",
		Short: "Terminal client for an AI customer support chat endpoint",
		Long: `supportchat keeps a conversation with an AI support assistant. Each turn
is sent, together with a system instruction and the conversation so far,
to a completion endpoint that replies with {"content":[{"text":"..."}]}.

Examples:
  supportchat chat                          Start interactive chat
  supportchat "How do I reset my password?" Send a single question
  supportchat -f question.txt               Read the question from a file
  cat question.txt | supportchat            Read the question from stdin
  supportchat "Hello" -o reply.txt          Save the reply to a file
  supportchat --persona technical chat      Chat with a persona`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "supportchat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(cmd, args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}
			return runQuery(cmd, deps, prompt)
		},
	}

	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Completion endpoint URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&systemFlag, "system", "s", "", "System instruction for this session")
	rootCmd.PersistentFlags().StringVarP(&personaFlag, "persona", "p", "", "Persona whose prompt is used as the system instruction")
	rootCmd.PersistentFlags().StringVar(&historyModeFlag, "history-mode", "", "How history is sent: live or snapshot")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Debug logging and request details")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save the reply to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the prompt from file")
	rootCmd.Flags().BoolVarP(&copyFlag, "copy", "c", false, "Copy the reply to the clipboard")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(NewChatCmd(deps))
	rootCmd.AddCommand(NewConfigCmd(deps))
	rootCmd.AddCommand(NewPersonaCmd())

	return rootCmd
}

// readPrompt takes the prompt from -f, the positional argument, or piped
// stdin, in that order. ok is false when there is no input at all.
func readPrompt(cmd *cobra.Command, args []string) (string, bool, error) {
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	in := cmd.InOrStdin()
	if !isPiped(in) {
		return "", false, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", false, fmt.Errorf("failed to read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", false, nil
	}
	return string(data), true, nil
}

// isPiped reports whether r is redirected input rather than a terminal
func isPiped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	return !term.IsTerminal(int(f.Fd()))
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd(nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
