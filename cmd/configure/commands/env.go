package commands

import (
	"context"
	"fmt"

	"github.com/benvon/social-momentum/internal/config"
	"github.com/benvon/social-momentum/internal/database"
	"github.com/benvon/social-momentum/internal/logger"
	"github.com/benvon/social-momentum/internal/services/ai"
	"github.com/benvon/social-momentum/internal/services/momentum"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type globalOptions struct {
	debug  bool
	output string
}

// env holds the connections one command invocation needs
type env struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
}

func openEnv(ctx context.Context, opts *globalOptions) (*env, error) {
	if opts.output != outputText && opts.output != outputJSON {
		return nil, fmt.Errorf("unknown output format %q", opts.output)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewCLILogger(opts.debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &env{cfg: cfg, db: db, logger: log}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.logger.Warn("failed_to_close_database_connection", zap.Error(err))
	}
	_ = logger.Sync(e.logger)
}

func (e *env) agent(debug bool) *momentum.Agent {
	provider, err := ai.NewDefaultRegistry().FromConfig(e.cfg.AI, e.logger, debug)
	if err != nil {
		e.logger.Warn("failed_to_create_ai_provider_using_templates", zap.Error(err))
		provider = nil
	}
	return momentum.NewAgent(
		database.NewSocialStore(e.db),
		database.NewAgentStore(e.db),
		e.cfg.Agent,
		momentum.WithProvider(provider),
		momentum.WithLogger(e.logger),
	)
}

func parseUser(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("--user is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user: %w", err)
	}
	return id, nil
}
