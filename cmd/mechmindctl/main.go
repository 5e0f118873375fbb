package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mechmind/internal/app"
	"github.com/kailas-cloud/mechmind/internal/config"
	logpkg "github.com/kailas-cloud/mechmind/internal/logger"
	"github.com/kailas-cloud/mechmind/internal/transport/cli"
)

func main() {
	cli.SetLoader(load)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

func load(ctx context.Context, logLevel string) (*cli.Services, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
	logger, err := logpkg.NewCLILogger(logLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	services, err := app.Build(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &cli.Services{
		Answers: services.Answers,
		Clauses: services.Clauses,
		Ingest:  services.Ingest,
		Logger:  logger.With(zap.String("env", env)),
		Close: func() {
			services.Close()
			_ = logger.Sync()
		},
	}, nil
}
