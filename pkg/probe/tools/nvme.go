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

// NvmeExecutor wraps nvme-cli invocations used by fast_clear on NVMe
// namespaces: a format (with optional secure-erase) is the fastest correct
// way to clear an NVMe drive.
type NvmeExecutor struct {
	logger   logger.Logger
	executor *command.CommandExecutor
	path     string
}

func NewNvmeExecutor(l logger.Logger, path string, useSudo bool) *NvmeExecutor {
	executor := command.NewCommandExecutor(useSudo)
	executor.Timeout = 5 * time.Minute // format can take a while on large namespaces

	return &NvmeExecutor{logger: l, executor: executor, path: path}
}

// Format issues `nvme format` against the device's first namespace. ses
// selects the secure-erase setting: 0 (no secure erase), 1 (user data
// erase), 2 (cryptographic erase).
func (n *NvmeExecutor) Format(ctx context.Context, device string, ses int) ([]byte, error) {
	n.logger.Info("formatting NVMe namespace", "device", device, "ses", ses)
	return n.executor.ExecuteWithCombinedOutput(ctx, n.path,
		"format", device,
		"--ses", strconv.Itoa(ses),
	)
}

// IdentifyNamespace reports namespace attributes as JSON. fast_clear does
// not call it after a format.
func (n *NvmeExecutor) IdentifyNamespace(ctx context.Context, device string) ([]byte, error) {
	return n.executor.ExecuteWithCombinedOutput(ctx, n.path, "id-ns", device, "--output-format=json")
}
