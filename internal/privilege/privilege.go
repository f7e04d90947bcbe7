// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package privilege gates destructive, privilege-requiring device
// operations (namespace format, discard, edge overwrite) behind an
// allow-listed set of device path patterns.
package privilege

import (
	"context"
	"path/filepath"
	"regexp"

	"github.com/stratastor/diskwiper/internal/command"
	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/logger"
)

// Config restricts which device paths this process will ever touch
// destructively, independent of the boot-disk guard's own classification.
type Config struct {
	AllowedPathPatterns []string `yaml:"allowed_path_patterns" json:"allowed_path_patterns"`
}

// DefaultConfig allows the conventional device-path shapes for Linux,
// Windows, and Darwin; the boot-disk guard is still the authority on
// whether a given matching path is actually safe to wipe.
func DefaultConfig() *Config {
	return &Config{
		AllowedPathPatterns: []string{
			`^/dev/[a-zA-Z0-9]+$`,
			`^/dev/disk[0-9]+$`,
			`^\\\\\.\\PHYSICALDRIVE[0-9]+$`,
		},
	}
}

// DeviceOperations runs commands against a device path after validating
// the path against the allow list.
type DeviceOperations struct {
	logger   logger.Logger
	executor *command.CommandExecutor
	allowed  []*regexp.Regexp
}

func New(l logger.Logger, executor *command.CommandExecutor, cfg *Config) *DeviceOperations {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	allowed := make([]*regexp.Regexp, 0, len(cfg.AllowedPathPatterns))
	for _, pattern := range cfg.AllowedPathPatterns {
		allowed = append(allowed, regexp.MustCompile(pattern))
	}
	return &DeviceOperations{logger: l, executor: executor, allowed: allowed}
}

func (d *DeviceOperations) isAllowed(devicePath string) bool {
	abs, err := filepath.Abs(devicePath)
	if err != nil {
		abs = devicePath
	}
	for _, re := range d.allowed {
		if re.MatchString(devicePath) || re.MatchString(abs) {
			return true
		}
	}
	return false
}

// IsAllowed reports whether devicePath matches the allow list, for
// callers that only need the gate and not a subprocess run — the
// wipe engine's pre-dispatch check, in particular, since a destructive
// device write is never itself routed through Run's executor.
func (d *DeviceOperations) IsAllowed(devicePath string) bool {
	return d.isAllowed(devicePath)
}

// Run executes name with args against devicePath, refusing if devicePath
// does not match an allowed pattern.
func (d *DeviceOperations) Run(ctx context.Context, devicePath, name string, args ...string) ([]byte, error) {
	if !d.isAllowed(devicePath) {
		return nil, errors.New(errors.PermissionDenied, "device path not allow-listed for privileged operations").
			WithMetadata("path", devicePath)
	}
	return d.executor.ExecuteWithCombinedOutput(ctx, name, args...)
}
