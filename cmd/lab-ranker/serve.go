package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/lab-ranker/internal/health"
	"github.com/yourusername/lab-ranker/internal/metrics"
	"github.com/yourusername/lab-ranker/internal/models"
	"github.com/yourusername/lab-ranker/internal/scheduler"
)

const scheduledRunTimeout = time.Hour

func newServeCmd() *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled lab analysis with health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Analyze once at startup before the first scheduled run")
	return cmd
}

func runServe(runNow bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.Schedule.Enabled {
		return fmt.Errorf("serve requires schedule.enabled")
	}

	a, err := newApp(ctx, cfg, true, nil)
	if err != nil {
		return err
	}
	defer a.close()

	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Metrics.Port,
		Logger:      a.log,
	}
	if a.db != nil {
		healthCfg.DB = a.db
	}
	if cfg.Metrics.Enabled {
		healthCfg.MetricsPath = cfg.Metrics.Path
		healthCfg.MetricsHandler = metrics.Handler()
	}
	healthServer := health.NewServer(healthCfg)
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	sched := scheduler.NewScheduler(a.analysis, a.log)
	sched.OnComplete(func(report *models.Report, err error) {
		healthServer.RecordRun(report, err)
	})
	if err := sched.ScheduleAnalysis(cfg.Schedule.Cron, cfg.Platform.LabIDs, scheduledRunTimeout); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	a.log.WithField("next_run", sched.GetNextRun().Format(time.RFC3339)).Info("Lab ranker serving")

	if runNow {
		go sched.RunNow(cfg.Platform.LabIDs, scheduledRunTimeout)
	}

	<-ctx.Done()
	a.log.Info("Shutting down")
	if err := sched.Stop(); err != nil {
		a.log.WithError(err).Warn("Scheduler did not stop cleanly")
	}
	return healthServer.Shutdown()
}
