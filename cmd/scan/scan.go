// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stratastor/diskwiper/config"
	"github.com/stratastor/diskwiper/internal/wireup"
	"github.com/stratastor/logger"
)

func NewScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Probe attached disks and refresh the device inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			l, err := logger.NewTag(config.NewLoggerConfig(cfg), "scan")
			if err != nil {
				return err
			}

			ctx := context.Background()
			app, err := wireup.Build(ctx, l, cfg)
			if err != nil {
				return err
			}

			devices, err := app.Coordinator.Scan(ctx)
			if err != nil {
				return err
			}

			if len(devices) == 0 {
				fmt.Println("no disks found")
				return nil
			}

			fmt.Printf("%-20s %-10s %-22s %-8s %s\n", "DEVICE", "SIZE", "MODEL", "BOOT", "SMART")
			for _, d := range devices {
				boot := ""
				if d.IsBootDisk {
					boot = "yes"
				}
				fmt.Printf("%-20s %-10s %-22s %-8s %s\n", d.DevicePath, d.SizeHuman, d.Model, boot, d.SMARTStatus)
			}
			return nil
		},
	}
}
