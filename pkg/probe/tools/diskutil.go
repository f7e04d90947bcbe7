// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"strconv"
	"time"

	"github.com/stratastor/diskwiper/internal/command"
	"github.com/stratastor/logger"
)

// DiskutilExecutor wraps macOS's diskutil, the Darwin equivalent of lsblk
// for enumeration and of blkdiscard/hdparm for secure erase.
type DiskutilExecutor struct {
	logger   logger.Logger
	executor *command.CommandExecutor
	path     string
}

func NewDiskutilExecutor(l logger.Logger, path string, useSudo bool) *DiskutilExecutor {
	executor := command.NewCommandExecutor(useSudo)
	executor.Timeout = 30 * time.Second

	if path == "" {
		path = "diskutil"
	}
	return &DiskutilExecutor{logger: l, executor: executor, path: path}
}

// List returns the text form of `diskutil list`, one stanza per whole disk.
func (d *DiskutilExecutor) List(ctx context.Context) ([]byte, error) {
	return d.executor.Execute(ctx, d.path, "list")
}

// Info returns `diskutil info <identifier>` in its "Key: Value" text form.
func (d *DiskutilExecutor) Info(ctx context.Context, identifier string) ([]byte, error) {
	return d.executor.Execute(ctx, d.path, "info", identifier)
}

// SecureErase runs diskutil's free-space secure erase with the given
// erase level. No fast_clear strategy calls it: FastClearTools carries
// no diskutil executor.
func (d *DiskutilExecutor) SecureErase(ctx context.Context, level int, identifier string) ([]byte, error) {
	d.logger.Info("issuing diskutil secure erase", "device", identifier, "level", level)
	return d.executor.ExecuteWithCombinedOutput(ctx, d.path, "secureErase", "freespace", strconv.Itoa(level), identifier)
}
