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

// HdparmExecutor wraps hdparm's ATA Secure Erase commands, the fallback
// fast_clear strategy for SATA SSDs that don't support TRIM-based clearing.
type HdparmExecutor struct {
	logger   logger.Logger
	executor *command.CommandExecutor
	path     string
}

func NewHdparmExecutor(l logger.Logger, path string, useSudo bool) *HdparmExecutor {
	executor := command.NewCommandExecutor(useSudo)
	executor.Timeout = 10 * time.Minute // secure erase has no progress reporting

	return &HdparmExecutor{logger: l, executor: executor, path: path}
}

// SetSecurityPassword sets a throwaway user password, a prerequisite ATA
// requires before SECURITY ERASE UNIT will run.
func (h *HdparmExecutor) SetSecurityPassword(ctx context.Context, device, password string) ([]byte, error) {
	return h.executor.ExecuteWithCombinedOutput(ctx, h.path, "--user-master", "u", "--security-set-pass", password, device)
}

// SecurityErase issues SECURITY ERASE UNIT with the password set above.
func (h *HdparmExecutor) SecurityErase(ctx context.Context, device, password string) ([]byte, error) {
	h.logger.Info("issuing ATA security erase", "device", device)
	return h.executor.ExecuteWithCombinedOutput(ctx, h.path, "--user-master", "u", "--security-erase", password, device)
}
