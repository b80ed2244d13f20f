package commands

import (
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/diogo/supportchat/internal/api"
	"github.com/diogo/supportchat/internal/chat"
	"github.com/diogo/supportchat/internal/config"
	"github.com/diogo/supportchat/internal/logging"
	"github.com/diogo/supportchat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(pipeline *chat.Pipeline, endpoint string) error
	RunConfig(cfg config.Config) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient builds the completion client for a session.
	NewClient func(cfg config.Config, logger *zap.Logger) (api.ChatClientInterface, error)

	// NewLogger builds the session logger.
	NewLogger func(cfg config.Config) (*zap.Logger, error)

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Clipboard copies text to the system clipboard.
	Clipboard func(text string) error
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(pipeline *chat.Pipeline, endpoint string) error {
	return tui.RunChat(pipeline, endpoint)
}

func (d *DefaultTUI) RunConfig(cfg config.Config) error {
	return tui.RunConfig(cfg)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient: newAPIClient,
		NewLogger: newFileLogger,
		TUI:       &DefaultTUI{},
		Clipboard: clipboard.WriteAll,
	}
}

func newAPIClient(cfg config.Config, logger *zap.Logger) (api.ChatClientInterface, error) {
	return api.NewClient(
		api.WithEndpoint(cfg.Endpoint),
		api.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		api.WithProxy(cfg.Proxy),
		api.WithLogger(logger),
	)
}

func newFileLogger(cfg config.Config) (*zap.Logger, error) {
	path, err := config.GetLogPath(cfg)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		File:    path,
		Level:   cfg.LogLevel,
		Verbose: cfg.Verbose,
	})
}
