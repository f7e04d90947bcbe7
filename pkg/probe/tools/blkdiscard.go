// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"time"

	"github.com/stratastor/diskwiper/internal/command"
	"github.com/stratastor/logger"
)

// BlkdiscardExecutor wraps blkdiscard, used by fast_clear's SSD strategy to
// TRIM the whole device before the edge overwrite.
type BlkdiscardExecutor struct {
	logger   logger.Logger
	executor *command.CommandExecutor
	path     string
}

func NewBlkdiscardExecutor(l logger.Logger, path string, useSudo bool) *BlkdiscardExecutor {
	executor := command.NewCommandExecutor(useSudo)
	executor.Timeout = 60 * time.Second

	return &BlkdiscardExecutor{logger: l, executor: executor, path: path}
}

// DiscardAll issues a secure discard across the whole device when secure
// is true (hardware-backed, stronger guarantee than a plain TRIM), else a
// regular discard.
func (b *BlkdiscardExecutor) DiscardAll(ctx context.Context, device string, secure bool) ([]byte, error) {
	args := []string{}
	if secure {
		args = append(args, "--secure")
	}
	args = append(args, device)

	b.logger.Info("discarding device", "device", device, "secure", secure)
	return b.executor.ExecuteWithCombinedOutput(ctx, b.path, args...)
}
