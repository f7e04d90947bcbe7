// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stratastor/diskwiper/internal/common"
	"github.com/stratastor/diskwiper/internal/events"
	"github.com/stratastor/diskwiper/internal/privilege"
	rterrors "github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/metrics"
	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/probe"
	"github.com/stratastor/diskwiper/pkg/wipeguard"
	"github.com/stratastor/logger"
)

// StatusRow is the shape returned by Active: the original
// implementation's get_all_active_wipes row, adopted verbatim.
type StatusRow struct {
	DevicePath string  `json:"device_path"`
	LogID      string  `json:"log_id"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
}

// Engine executes, tracks, and persists wipe jobs. It owns the
// active-wipe registry and a bounded worker concurrency ceiling;
// constructed once at process start and passed by reference to the
// coordinator — never reached through a package-level singleton.
type Engine struct {
	logger   logger.Logger
	prober   probe.Prober
	guard    *wipeguard.Guard
	store    persistence.Store
	registry  *Registry
	tools     FastClearTools
	metrics   *metrics.Metrics
	privilege *privilege.DeviceOperations

	maxConcurrent int
	sem           chan struct{}
}

// Config carries the tunables the engine needs beyond its collaborators.
// Metrics may be left nil: every Engine call into it tolerates a nil
// receiver, so metrics collection is opt-in. Privilege may also be left
// nil, in which case the allow-list check is skipped entirely — callers
// that don't need the extra defense-in-depth layer beyond the boot-disk
// guard aren't forced to construct one.
type Config struct {
	MaxConcurrent int
	Tools         FastClearTools
	Metrics       *metrics.Metrics
	Privilege     *privilege.DeviceOperations
}

func NewEngine(l logger.Logger, prober probe.Prober, guard *wipeguard.Guard, store persistence.Store, cfg Config) *Engine {
	max := cfg.MaxConcurrent
	if max <= 0 {
		max = 4
	}
	return &Engine{
		logger:        l,
		prober:        prober,
		guard:         guard,
		store:         store,
		registry:      NewRegistry(),
		tools:         cfg.Tools,
		metrics:       cfg.Metrics,
		privilege:     cfg.Privilege,
		maxConcurrent: max,
		sem:           make(chan struct{}, max),
	}
}

// ReconcileOnStartup transitions every wipe log found in_progress with no
// matching active-wipe registry entry to failed — the registry is always
// empty immediately after construction, so this runs once, right after
// construction, before any new wipe is accepted.
func (e *Engine) ReconcileOnStartup(ctx context.Context) error {
	logs, err := e.store.ListWipeLogs(ctx)
	if err != nil {
		return rterrors.Wrap(err, rterrors.InventoryPersistFailed)
	}

	for _, log := range logs {
		if log.Status != persistence.StatusInProgress {
			continue
		}
		if e.registry.Has(log.DevicePath) {
			continue
		}

		now := time.Now().UTC()
		log.Status = persistence.StatusFailed
		log.EndTime = &now
		log.ErrorMessage = "reconciled at startup: no active worker found for an in_progress record, likely an unclean shutdown"
		if err := e.store.UpdateWipeLog(ctx, log); err != nil {
			e.logger.Error("failed to reconcile stale wipe log", "log_id", log.ID, "error", err)
			continue
		}
		e.logger.Warn("reconciled stale in_progress wipe log to failed", "log_id", log.ID, "device_path", log.DevicePath)
	}
	return nil
}

// Start implements the start-time protocol: guard check, registry claim,
// before-SMART capture, log persistence, and worker spawn, all
// synchronous up to the point the worker is handed off.
func (e *Engine) Start(ctx context.Context, devicePath string, method persistence.WipeMethod, passes int) (accepted bool, message string, logID string) {
	safe, reason := e.guard.VerifyNotBootDisk(ctx, devicePath)
	if !safe {
		return false, reason, ""
	}

	if e.privilege != nil && !e.privilege.IsAllowed(devicePath) {
		return false, "device path not allow-listed for privileged operations", ""
	}

	logIDCandidate := common.UUID7()
	if !e.registry.TryStart(devicePath, logIDCandidate) {
		return false, "device already has an active wipe in progress", ""
	}

	device, err := e.prober.RefreshDevice(ctx, devicePath)
	if err != nil {
		e.registry.Remove(devicePath)
		return false, fmt.Sprintf("failed to refresh device metadata: %v", err), ""
	}

	before, err := e.prober.CaptureSMART(ctx, devicePath)
	if err != nil {
		e.logger.Warn("pre-wipe SMART capture failed, proceeding without it", "device_path", devicePath, "error", err)
	}

	record := &persistence.WipeLogRecord{
		ID:                  logIDCandidate,
		DiskID:              device.DeviceID,
		DevicePath:          device.DevicePath,
		Model:               device.Model,
		SerialNumber:        device.Serial,
		SizeBytes:           device.SizeBytes,
		SMARTSnapshotBefore: before,
		Method:              method,
		Passes:              passes,
		Status:              persistence.StatusInProgress,
		StartTime:           time.Now().UTC(),
	}
	if err := e.store.InsertWipeLog(ctx, record); err != nil {
		e.registry.Remove(devicePath)
		return false, fmt.Sprintf("failed to persist wipe log: %v", err), ""
	}

	select {
	case e.sem <- struct{}{}:
	default:
		e.store.UpdateWipeLog(ctx, failWithReason(record, "wipe concurrency ceiling reached"))
		e.registry.Remove(devicePath)
		return false, "too many wipes already running", ""
	}

	e.metrics.WipeStarted()
	go e.runWorker(context.Background(), device, record)

	return true, "started", record.ID
}

func failWithReason(r *persistence.WipeLogRecord, reason string) *persistence.WipeLogRecord {
	now := time.Now().UTC()
	r.Status = persistence.StatusFailed
	r.EndTime = &now
	r.ErrorMessage = reason
	return r
}

// Status returns the current view of one wipe log.
func (e *Engine) Status(ctx context.Context, logID string) (*persistence.WipeLogRecord, bool, error) {
	return e.store.GetWipeLog(ctx, logID)
}

// Active returns a snapshot of every currently running wipe.
func (e *Engine) Active() []StatusRow {
	entries := e.registry.Snapshot()
	rows := make([]StatusRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, StatusRow{
			DevicePath: entry.DevicePath,
			LogID:      entry.LogID,
			Status:     entry.Status,
			Progress:   entry.Progress,
		})
	}
	return rows
}

// Drain waits up to timeout for active workers to finish, for use as a
// lifecycle drain function at shutdown. Workers still running past the
// deadline are abandoned; their records remain in_progress for the next
// startup's reconciliation pass.
func (e *Engine) Drain(timeout time.Duration) {
	deadline := time.After(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if len(e.registry.Snapshot()) == 0 {
			return
		}
		select {
		case <-deadline:
			e.logger.Warn("shutdown drain timed out with wipes still active")
			return
		case <-ticker.C:
		}
	}
}

// emit publishes a progress or terminal-state transition onto the
// process-wide event bus, consumed by the CLI's foreground progress bar.
// Best-effort: a nil bus (not running under `serve`, or not yet
// initialized) is a silent no-op, and publication never blocks or fails
// the worker.
func (e *Engine) emit(eventType string, level events.EventLevel, payload map[string]string) {
	if events.GlobalEventBus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	events.GlobalEventBus.Emit(eventType, level, events.CategoryWipe, "wipeengine", data, payload)
}
