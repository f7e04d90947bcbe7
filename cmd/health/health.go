// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stratastor/diskwiper/config"
	"github.com/stratastor/diskwiper/pkg/probe/tools"
	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stratastor/logger"
)

func NewHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check diskwiper's tool availability and state directory health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()

			l, err := logger.NewTag(config.NewLoggerConfig(cfg), "health")
			if err != nil {
				return err
			}

			checker := tools.NewToolChecker(l, &types.ToolsConfig{
				SmartctlPath:   cfg.Wipe.SmartctlPath,
				LsblkPath:      cfg.Wipe.LsblkPath,
				NvmePath:       cfg.Wipe.NvmePath,
				BlkdiscardPath: cfg.Wipe.BlkdiscardPath,
				HdparmPath:     cfg.Wipe.HdparmPath,
			})

			statuses := checker.CheckAll()
			healthy := true

			fmt.Println("tools:")
			for name, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
					healthy = false
				}
				fmt.Printf("  %-12s %-8s path=%s version=%s\n", name, state, status.Path, status.Version)
			}

			stateErr := checkWritable(cfg.Wipe.StateDir)
			reportsErr := checkWritable(cfg.Wipe.ReportsDir)
			fmt.Println("directories:")
			fmt.Printf("  %-12s %s\n", "state", dirStatus(cfg.Wipe.StateDir, stateErr))
			fmt.Printf("  %-12s %s\n", "reports", dirStatus(cfg.Wipe.ReportsDir, reportsErr))
			if stateErr != nil || reportsErr != nil {
				healthy = false
			}

			if !healthy {
				fmt.Println("status: degraded")
				return nil
			}
			fmt.Println("status: ok")
			return nil
		},
	}
}

func checkWritable(dir string) error {
	probe := dir + "/.health-probe"
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}

func dirStatus(dir string, err error) string {
	if err != nil {
		return fmt.Sprintf("unwritable path=%s error=%v", dir, err)
	}
	return fmt.Sprintf("ok path=%s", dir)
}
