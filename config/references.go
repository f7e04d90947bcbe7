// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	configDir  string // Directory for configuration files
	stateDir   string // Directory for wipe-engine state and persistence
	reportsDir string // Directory for rendered wipe reports
	eventsDir  string // Directory for event logs
)

func init() {
	if os.Geteuid() == 0 {
		configDir = "/etc/diskwiper"
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(fmt.Sprintf("failed to get home directory: %v", err))
		}
		configDir = filepath.Join(homeDir, ".diskwiper")
	}

	stateDir = filepath.Join(configDir, "state")
	reportsDir = filepath.Join(configDir, "reports")
	eventsDir = filepath.Join(configDir, "events")

	if err := EnsureDirectories(); err != nil {
		panic(fmt.Sprintf("failed to ensure configuration directories: %v", err))
	}
}

// GetConfigDir returns the appropriate configuration directory. If running
// as root, it returns the system config directory; otherwise the user
// config directory.
func GetConfigDir() string {
	return configDir
}

// GetStateDir returns the directory holding wipe-engine state: the
// persisted wipe log and any crash-reconciliation bookkeeping.
func GetStateDir() string {
	return stateDir
}

// GetReportsDir returns the directory rendered wipe reports are written to.
func GetReportsDir() string {
	return reportsDir
}

// GetEventsDir returns the directory for event logs.
func GetEventsDir() string {
	return eventsDir
}

// EnsureDirectories creates necessary directories if they do not exist.
func EnsureDirectories() error {
	dirs := []string{
		configDir,
		stateDir,
		reportsDir,
		eventsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
