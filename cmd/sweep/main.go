// Command sweep moves complaints that sat unassigned or unresolved too long
// into the pending state. Run it from cron, or with --interval as a loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		dryRun   bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:          "sweep",
		Short:        "Mark stale complaints as pending",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, dryRun, interval)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report matching complaints without updating them")
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat the sweep on this interval until interrupted")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, dryRun bool, interval time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	sweeper := service.NewSweepService(cfg.Sweep, service.SweepDependencies{
		ComplaintRepo: repository.NewComplaintRepository(pool),
		TxManager:     repository.NewTxManager(pool),
		Metrics:       observability.NewMetrics(),
		Logger:        logger,
	})

	report := func(r *service.SweepReport) {
		verb := "Marked"
		if r.DryRun {
			verb = "Would mark"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d unassigned and %d stalled complaints as pending\n", verb, r.Unassigned, r.Stalled)
	}
	if interval <= 0 {
		r, err := sweeper.Run(ctx, dryRun)
		if err != nil {
			logger.Error("sweep failed", zap.Error(err))
			return err
		}
		report(r)
		return nil
	}

	logger.Info("sweep loop started", zap.Duration("interval", interval), zap.Bool("dry_run", dryRun))
	worker.RunSweepLoop(ctx, sweeper, interval, dryRun, logger, report)
	return nil
}
