package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/diogo/supportchat/internal/api"
	"github.com/diogo/supportchat/internal/chat"
	"github.com/diogo/supportchat/internal/config"
	"github.com/diogo/supportchat/internal/logging"
)

// session is one widget instance: config, client, store and pipeline wired
// together for a single run of the program
type session struct {
	id       string
	cfg      config.Config
	client   api.ChatClientInterface
	logger   *zap.Logger
	pipeline *chat.Pipeline
}

func (s *session) store() *chat.Store {
	return s.pipeline.Store()
}

func (s *session) Close() {
	s.client.Close()
	_ = s.logger.Sync()
}

// effectiveConfig loads the config and applies the global flags on top
func effectiveConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}

	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if historyModeFlag != "" {
		cfg.HistoryMode = historyModeFlag
	}
	if personaFlag != "" {
		cfg.Persona = personaFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newSession builds a session from the effective config
func newSession(deps *Dependencies) (*session, error) {
	cfg, err := effectiveConfig()
	if err != nil {
		return nil, err
	}

	instruction := systemFlag
	if instruction == "" {
		instruction, err = config.ResolveSystemInstruction(cfg, "")
		if err != nil {
			return nil, err
		}
	}

	mode, err := chat.ParseHistoryMode(cfg.HistoryMode)
	if err != nil {
		return nil, err
	}

	logger, err := deps.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	id := logging.NewSessionID()
	logger = logger.With(zap.String("endpoint", cfg.Endpoint))

	client, err := deps.NewClient(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	store := chat.NewStore(
		chat.WithGreeting(cfg.Greeting),
		chat.WithSystemInstruction(instruction),
	)
	pipeline := chat.NewPipeline(store, client,
		chat.WithLogger(logger),
		chat.WithFallbackReply(cfg.FallbackReply),
		chat.WithHistoryMode(mode),
		chat.WithSessionID(id),
	)

	logger.Info("session started",
		zap.String("session", id),
		zap.String("history_mode", string(mode)),
		zap.String("persona", cfg.Persona))

	return &session{
		id:       id,
		cfg:      cfg,
		client:   client,
		logger:   logger,
		pipeline: pipeline,
	}, nil
}
