// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/stratastor/diskwiper/config"
	"github.com/stratastor/diskwiper/internal/wireup"
	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/reportprojector"
	"github.com/stratastor/logger"
)

func NewReportCmd() *cobra.Command {
	var logID, format, outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a completed wipe's report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			l, err := logger.NewTag(config.NewLoggerConfig(cfg), "report")
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
				return errors.Wrap(err, errors.ReportLogNotFound)
			}
			if !found {
				return errors.New(errors.ReportLogNotFound, logID)
			}

			rep := reportprojector.Project(record, time.Now().UTC())

			switch format {
			case "text":
				out := reportprojector.RenderText(rep)
				if outPath == "" {
					fmt.Println(out)
					return nil
				}
				return os.WriteFile(outPath, []byte(out), 0644)

			case "json":
				data, err := json.MarshalIndent(rep, "", "  ")
				if err != nil {
					return errors.Wrap(err, errors.ReportRenderFailed)
				}
				if outPath == "" {
					fmt.Println(string(data))
					return nil
				}
				return os.WriteFile(outPath, data, 0644)

			case "pdf":
				if outPath == "" {
					outPath = filepath.Join(cfg.Wipe.ReportsDir, rep.ReportID+".pdf")
				}
				f, err := os.Create(outPath)
				if err != nil {
					return errors.Wrap(err, errors.ReportRenderFailed)
				}
				defer f.Close()
				if err := reportprojector.RenderPDF(rep, f); err != nil {
					return errors.Wrap(err, errors.ReportRenderFailed)
				}
				fmt.Printf("report written to %s\n", outPath)
				return nil

			default:
				return fmt.Errorf("unknown report format %q, want text|json|pdf", format)
			}
		},
	}

	cmd.Flags().StringVar(&logID, "log-id", "", "wipe log id (required)")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text|json|pdf")
	cmd.Flags().StringVar(&outPath, "out", "", "output file path (default: stdout for text/json, reports dir for pdf)")
	cmd.MarkFlagRequired("log-id")
	return cmd
}
