// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/diskwiper/config"
	"github.com/stratastor/diskwiper/internal/constants"
	"github.com/stratastor/diskwiper/internal/events"
	"github.com/stratastor/diskwiper/internal/wireup"
	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/lifecycle"
	"github.com/stratastor/diskwiper/pkg/metrics"
	"github.com/stratastor/logger"
)

var detached bool

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the diskwiper daemon",
		Run:   runServe,
	}

	cmd.Flags().BoolVarP(&detached, "daemonize", "d", false, "Run as a daemon")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) {
	rc := config.GetConfig()
	pidFile := constants.DiskwiperPIDFilePath
	if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}

	if detached {
		ctx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			LogFileName: rc.Logs.Path,
			LogFilePerm: 0640,
			WorkDir:     "/",
			Umask:       027,
			Args:        []string{"diskwiper", "serve"},
		}

		d, err := ctx.Reborn()
		if err != nil {
			fmt.Printf("Failed to start daemon: %v\n", err)
			os.Exit(1)
		}

		if d != nil {
			fmt.Println("diskwiper is running as a daemon")
			return
		}
		defer ctx.Release()
	}

	startServer()
}

func startServer() {
	cfg := config.GetConfig()

	ctx, cancel := context.WithCancel(context.Background())
	lifecycle.RegisterContextCanceller(cancel)

	l, err := logger.NewTag(config.NewLoggerConfig(cfg), "serve")
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := events.Initialize(ctx, l); err != nil {
		l.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}

	app, err := wireup.Build(ctx, l, cfg)
	if err != nil {
		l.Error("failed to wire up wipe engine", "error", err)
		os.Exit(1)
	}

	sched, err := startScheduler(l, app)
	if err != nil {
		l.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled && app.Metrics != nil {
		metricsServer = startMetricsServer(l, cfg, app.Metrics)
	}

	lifecycle.RegisterDrainFunc(app.Engine.Drain)
	lifecycle.RegisterShutdownHook(func() {
		l.Info("shutting down")
		if err := sched.Shutdown(); err != nil {
			l.Warn("error stopping scheduler", "error", err)
		}
		if metricsServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				l.Warn("error stopping metrics server", "error", err)
			}
		}
	})

	go lifecycle.HandleSignals(ctx)

	l.Info("diskwiper serve started", "max_concurrent", cfg.Wipe.MaxConcurrent, "state_dir", cfg.Wipe.StateDir)

	<-ctx.Done()
}

// startScheduler registers the two background jobs every running
// daemon needs regardless of operator-triggered wipes: a periodic
// inventory rescan (so newly attached disks appear without a manual
// scan) and a lightweight liveness log, following the same
// construct-register-Start sequence as the disk-probing scheduler this
// daemon's ancestor used for SMART probes.
func startScheduler(l logger.Logger, app *wireup.App) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, errors.InventoryPersistFailed).WithMetadata("operation", "create_scheduler")
	}

	_, err = sched.NewJob(
		gocron.CronJob("*/5 * * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := app.Coordinator.Scan(ctx); err != nil {
				l.Warn("periodic inventory rescan failed", "error", err)
			}
		}),
		gocron.WithName("inventory-rescan"),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.InventoryPersistFailed).WithMetadata("operation", "register_rescan_job")
	}

	_, err = sched.NewJob(
		gocron.CronJob("* * * * *", false),
		gocron.NewTask(func() {
			active := app.Engine.Active()
			l.Debug("liveness check", "active_wipes", len(active))
		}),
		gocron.WithName("liveness-check"),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.InventoryPersistFailed).WithMetadata("operation", "register_liveness_job")
	}

	sched.Start()
	return sched, nil
}

// startMetricsServer exposes the Prometheus handler on its own port,
// independent of any request-serving port, so scraping never contends
// with wipe-control traffic.
func startMetricsServer(l logger.Logger, cfg *config.Config, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, m.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	go func() {
		l.Info("metrics server listening", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("metrics server stopped", "error", err)
		}
	}()

	return srv
}
