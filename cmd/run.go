package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunedrop/tunedrop/internal/acquire"
	"github.com/tunedrop/tunedrop/internal/delivery"
	"github.com/tunedrop/tunedrop/internal/repositories"
	"github.com/tunedrop/tunedrop/internal/resolver"
	"github.com/tunedrop/tunedrop/internal/session"
	"github.com/tunedrop/tunedrop/internal/shared"
	"github.com/tunedrop/tunedrop/internal/telegram"
	"github.com/urfave/cli/v3"
)

// orphanAge is how old a leftover workspace must be before the startup sweep
// removes it.
const orphanAge = time.Hour

// Run wires the pipeline together and blocks on the bot update loop.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	if config.Telegram.Debug {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	token := cmd.String("token")
	if token == "" {
		token = config.Telegram.Token
	}
	if token == "" {
		return fmt.Errorf("%w: set telegram.token in config.toml or TELEGRAM_BOT_TOKEN", shared.ErrMissingToken)
	}

	strategies, err := resolver.FromConfig(config.Source)
	if err != nil {
		return fmt.Errorf("building strategies: %w", err)
	}
	res := resolver.New(strategies, config.Source.ProbeTimeout(), config.Search.MaxResults,
		shared.WithLogger(r.logger, "component", "resolver"))

	sessions := session.New(config.Search.PageSize, config.Search.MaxPages, config.Search.TTL())

	if err := os.MkdirAll(config.Audio.TempDir, 0755); err != nil {
		return fmt.Errorf("%w: creating temp dir: %v", shared.ErrFilesystem, err)
	}
	acquire.SweepOrphans(config.Audio.TempDir, orphanAge, r.logger)

	acquireLog := shared.WithLogger(r.logger, "component", "acquire")
	downloader := acquire.NewYtdlpDownloader(config.Source.CookiesPath, acquireLog)
	worker := acquire.NewWorker(downloader, acquire.NewFFmpeg(acquireLog), config.Audio, acquireLog)

	var history delivery.History
	if config.Database.Path != "" {
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		history = repositories.NewDeliveryRepository(db)
	} else {
		r.logger.Info("history database disabled")
	}

	bot, err := telegram.New(token, config.Telegram.Debug, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	coordinator := delivery.NewCoordinator(res, sessions, worker, bot, history, delivery.Options{
		PageSize:        config.Search.PageSize,
		PerUserInterval: time.Duration(config.Limits.PerUserSeconds) * time.Second,
	}, r.logger)

	go pruneSessions(ctx, sessions, r.logger)

	r.logger.Info("bot started",
		"strategies", config.Source.Strategies,
		"temp_dir", config.Audio.TempDir,
		"max_mb", config.Audio.MaxFileSizeMB)

	return bot.Run(ctx, coordinator)
}

// pruneSessions expires idle search sessions in the background. Expiry is
// also enforced lazily on access; this keeps the map itself from growing.
func pruneSessions(ctx context.Context, sessions *session.Store, logger *log.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(); n > 0 {
				logger.Debug("pruned expired sessions", "count", n)
			}
		}
	}
}
