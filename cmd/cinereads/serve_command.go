package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cinereads/internal/logging"
	"cinereads/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the CineReads API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(cmdCtx context.Context, ctx *commandContext) error {
	if ctx == nil {
		return errors.New("command context is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(cfg.Paths.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another cinereads instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release instance lock", logging.Error(err))
		}
	}()

	stack, err := buildLookupStack(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.close()

	recSvc, err := buildRecommendService(cfg, stack, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg.Paths.APIBind, recSvc, stack.metadata, stack.cache, version, logger)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	if err := srv.Start(signalCtx); err != nil {
		return err
	}
	defer srv.Stop()

	go stack.cache.RunSweeper(signalCtx, secondsDuration(cfg.Cache.SweepInterval))
	go runJournalPruner(signalCtx, stack, cfg.Cache.JournalRetentionDays, logger)

	logger.Info("cinereads serving",
		logging.String("address", srv.Addr()),
		logging.String("cache_dir", cfg.Paths.CacheDir),
		logging.String("journal", stack.journal.Path()))

	<-signalCtx.Done()
	logger.Info("cinereads shutting down")
	return nil
}

// runJournalPruner drops journal rows past retention once a day. Retention
// of zero or less disables pruning.
func runJournalPruner(ctx context.Context, stack *lookupStack, retentionDays int, logger *slog.Logger) {
	if retentionDays <= 0 {
		return
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := stack.journal.Prune(ctx, retention)
			if err != nil {
				logger.Warn("journal prune failed", logging.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("journal pruned", logging.Int64("removed", removed))
			}
		}
	}
}
