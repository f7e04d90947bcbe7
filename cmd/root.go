package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/diskwiper/cmd/config"
	"github.com/stratastor/diskwiper/cmd/health"
	"github.com/stratastor/diskwiper/cmd/logs"
	"github.com/stratastor/diskwiper/cmd/report"
	"github.com/stratastor/diskwiper/cmd/scan"
	"github.com/stratastor/diskwiper/cmd/serve"
	"github.com/stratastor/diskwiper/cmd/status"
	"github.com/stratastor/diskwiper/cmd/version"
	"github.com/stratastor/diskwiper/cmd/wipe"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "diskwiper",
		Short: "Disk wipe daemon for supervised, auditable drive erasure",
	}

	rootCmd.AddCommand(serve.NewServeCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(health.NewHealthCmd())
	rootCmd.AddCommand(status.NewStatusCmd())
	rootCmd.AddCommand(logs.NewLogsCmd())
	rootCmd.AddCommand(config.NewConfigCmd())
	rootCmd.AddCommand(scan.NewScanCmd())
	rootCmd.AddCommand(wipe.NewWipeCmd())
	rootCmd.AddCommand(report.NewReportCmd())

	return rootCmd
}
