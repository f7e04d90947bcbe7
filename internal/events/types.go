// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"time"

	"github.com/stratastor/diskwiper/config"
)

// EventLevel is the event's severity.
type EventLevel int32

const (
	LevelUnspecified EventLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

// EventCategory groups events by subsystem.
type EventCategory int32

const (
	CategoryUnspecified EventCategory = iota
	CategorySystem
	CategoryStorage
	CategorySecurity
	CategoryWipe
)

// Event is a single occurrence emitted by the wipe engine, inventory
// service, or coordinator — progress updates, completions, and failures
// flow through the same shape so any subscriber (today, the CLI progress
// renderer) sees them all on one bus.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Level     EventLevel        `json:"level"`
	Category  EventCategory     `json:"category"`
	Source    string            `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   []byte            `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EventConfig controls the bus's in-memory buffering and disk spillover.
type EventConfig struct {
	BufferSize     int `json:"buffer_size"`
	FlushThreshold int `json:"flush_threshold"`

	EnabledLevels     []EventLevel    `json:"enabled_levels"`
	EnabledCategories []EventCategory `json:"enabled_categories"`

	MaxFileSize int64 `json:"max_file_size"`
}

// DefaultEventConfig returns the baseline configuration.
func DefaultEventConfig() *EventConfig {
	return &EventConfig{
		BufferSize:        20000,
		FlushThreshold:    18000,
		EnabledLevels:     []EventLevel{LevelInfo, LevelWarn, LevelError, LevelCritical},
		EnabledCategories: []EventCategory{CategorySystem, CategoryStorage, CategorySecurity, CategoryWipe},
		MaxFileSize:       10 * 1024 * 1024,
	}
}

// GetEventConfig builds an EventConfig from the main configuration,
// applying a named profile preset before specific field overrides.
func GetEventConfig() *EventConfig {
	cfg := config.GetConfig()
	eventConfig := DefaultEventConfig()

	switch cfg.Events.Profile {
	case "default", "":
	case "high-throughput":
		eventConfig.BufferSize = 50000
		eventConfig.FlushThreshold = 45000
	case "low-latency":
		eventConfig.BufferSize = 5000
		eventConfig.FlushThreshold = 4000
	case "minimal":
		eventConfig.BufferSize = 2000
		eventConfig.FlushThreshold = 1800
		eventConfig.EnabledLevels = []EventLevel{LevelError, LevelCritical}
	}

	if cfg.Events.BufferSize != nil && *cfg.Events.BufferSize > 0 {
		eventConfig.BufferSize = *cfg.Events.BufferSize
	}
	if cfg.Events.FlushThreshold != nil && *cfg.Events.FlushThreshold > 0 {
		eventConfig.FlushThreshold = *cfg.Events.FlushThreshold
	}
	if cfg.Events.MaxFileSize != nil && *cfg.Events.MaxFileSize > 0 {
		eventConfig.MaxFileSize = *cfg.Events.MaxFileSize
	}

	return eventConfig
}
