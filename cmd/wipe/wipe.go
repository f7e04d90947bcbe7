// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package wipe implements the wipe start|status|active command group:
// the CLI's thin front end onto the coordinator.
package wipe

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/stratastor/diskwiper/config"
	"github.com/stratastor/diskwiper/internal/events"
	"github.com/stratastor/diskwiper/internal/wireup"
	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/logger"
)

func NewWipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Start and inspect disk wipes",
	}
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newActiveCmd())
	return cmd
}

func newStartCmd() *cobra.Command {
	var disk, method string
	var passes int
	var foreground bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a wipe on one disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			l, err := logger.NewTag(config.NewLoggerConfig(cfg), "wipe")
			if err != nil {
				return err
			}

			ctx := context.Background()
			if foreground {
				if err := events.Initialize(ctx, l); err != nil {
					l.Warn("event bus unavailable, foreground progress will be silent", "error", err)
				}
			}

			app, err := wireup.Build(ctx, l, cfg)
			if err != nil {
				return err
			}

			outcome := app.Coordinator.StartWipe(ctx, disk, persistence.WipeMethod(method), passes)
			if !outcome.Accepted {
				return fmt.Errorf("wipe refused (%s): %s", outcome.Class, outcome.Reason)
			}

			fmt.Printf("wipe started: log_id=%s device=%s method=%s\n", outcome.LogID, disk, method)

			if foreground {
				watchForeground(ctx, app, outcome.LogID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&disk, "disk", "", "device path to wipe (required)")
	cmd.Flags().StringVar(&method, "method", "zeros", "wipe method: zeros|random|dod|bsi|fast_clear")
	cmd.Flags().IntVar(&passes, "passes", 1, "pass count, 1-10 (zeros/random only; ignored otherwise)")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "block and render live progress")
	cmd.MarkFlagRequired("disk")
	return cmd
}

// watchForeground renders a live progress bar by subscribing to the
// event bus for this log's progress and terminal transitions, falling
// back to polling the persisted record if the bus never initialized.
func watchForeground(ctx context.Context, app *wireup.App, logID string) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("wiping"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	if events.GlobalEventBus == nil {
		pollForeground(ctx, app, logID, bar)
		return
	}

	subID, ch := events.GlobalEventBus.Subscribe(32)
	defer events.GlobalEventBus.Unsubscribe(subID)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Metadata["log_id"] != logID {
				continue
			}
			switch ev.Type {
			case "wipe.progress":
				var pct float64
				fmt.Sscanf(ev.Metadata["progress"], "%f", &pct)
				bar.Set(int(pct))
			case "wipe.completed":
				bar.Set(100)
				fmt.Println("\nwipe completed")
				return
			case "wipe.failed":
				fmt.Printf("\nwipe failed: %s\n", ev.Metadata["reason"])
				return
			}
		}
	}
}

// pollForeground is the fallback path when the event bus isn't running
// (e.g. a bare CLI invocation against a state directory with no serve
// process attached): poll the persisted record directly.
func pollForeground(ctx context.Context, app *wireup.App, logID string, bar *progressbar.ProgressBar) {
	for {
		record, found, err := app.Coordinator.Status(ctx, logID)
		if err != nil || !found {
			return
		}
		bar.Set(int(record.ProgressPercent))
		if record.Terminal() {
			if record.Status == persistence.StatusFailed {
				fmt.Printf("\nwipe failed: %s\n", record.ErrorMessage)
			} else {
				fmt.Println("\nwipe completed")
			}
			return
		}
	}
}

func newStatusCmd() *cobra.Command {
	var logID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of one wipe log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			l, err := logger.NewTag(config.NewLoggerConfig(cfg), "wipe")
			if err != nil {
				return err
			}

			ctx := context.Background()
			app, err := wireup.Build(ctx, l, cfg)
			if err != nil {
				return err
			}

			record, found, err := app.Coordinator.Status(ctx, logID)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no wipe log found for id %q", logID)
			}

			fmt.Printf("log_id:    %s\n", record.ID)
			fmt.Printf("device:    %s\n", record.DevicePath)
			fmt.Printf("method:    %s (passes=%d)\n", record.Method, record.Passes)
			fmt.Printf("status:    %s\n", record.Status)
			fmt.Printf("progress:  %.1f%%\n", record.ProgressPercent)
			if record.ErrorMessage != "" {
				fmt.Printf("error:     %s\n", record.ErrorMessage)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logID, "log-id", "", "wipe log id (required)")
	cmd.MarkFlagRequired("log-id")
	return cmd
}

func newActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List wipes currently in progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			l, err := logger.NewTag(config.NewLoggerConfig(cfg), "wipe")
			if err != nil {
				return err
			}

			ctx := context.Background()
			app, err := wireup.Build(ctx, l, cfg)
			if err != nil {
				return err
			}

			rows := app.Coordinator.Active()
			if len(rows) == 0 {
				fmt.Println("no active wipes")
				return nil
			}
			fmt.Printf("%-20s %-38s %-12s %s\n", "DEVICE", "LOG ID", "STATUS", "PROGRESS")
			for _, r := range rows {
				fmt.Printf("%-20s %-38s %-12s %.1f%%\n", r.DevicePath, r.LogID, r.Status, r.Progress)
			}
			return nil
		},
	}
}
