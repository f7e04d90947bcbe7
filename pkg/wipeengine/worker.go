// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"context"
	"fmt"
	"time"

	"github.com/stratastor/diskwiper/internal/events"
	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/probe/types"
)

// runWorker is the background protocol bound to one log record. It owns
// the registry entry for record.DevicePath until it returns, at which
// point the entry is removed and the concurrency slot released.
func (e *Engine) runWorker(ctx context.Context, device *types.Device, record *persistence.WipeLogRecord) {
	devicePath := record.DevicePath

	defer func() {
		e.registry.Remove(devicePath)
		<-e.sem
	}()

	// The classification from Start is never reused for the destructive
	// decision: re-run it immediately before writing.
	safe, reason := e.guard.VerifyNotBootDisk(ctx, devicePath)
	if !safe {
		e.terminateFailed(ctx, record, fmt.Sprintf("boot-disk guard refused at worker start: %s", reason))
		return
	}

	e.registry.SetStatus(devicePath, "running")
	e.emit("wipe.started", events.LevelInfo, map[string]string{"log_id": record.ID, "device_path": devicePath})

	onBytes := func(n uint64) {
		e.metrics.BytesWritten(n)
	}

	onProgress := func(percent float64) {
		record.ProgressPercent = percent
		e.registry.SetProgress(devicePath, percent)
		if err := e.store.UpdateWipeLog(ctx, record); err != nil {
			e.logger.Error("failed to persist progress", "log_id", record.ID, "error", err)
		}
		e.emit("wipe.progress", events.LevelInfo, map[string]string{
			"log_id": record.ID, "device_path": devicePath, "progress": fmt.Sprintf("%.1f", percent),
		})
	}

	verificationData := map[string]any{}
	var runErr error

	switch record.Method {
	case persistence.MethodZeros:
		runErr = e.runPatternPasses(ctx, devicePath, patternZeros, device.SizeBytes, record.Passes, onProgress, onBytes)
	case persistence.MethodOnes:
		runErr = e.runPatternPasses(ctx, devicePath, patternOnes, device.SizeBytes, record.Passes, onProgress, onBytes)
	case persistence.MethodRandom:
		runErr = e.runPatternPasses(ctx, devicePath, patternRandom, device.SizeBytes, record.Passes, onProgress, onBytes)
	case persistence.MethodDoD:
		runErr = e.runDoD(ctx, devicePath, device.SizeBytes, onProgress, onBytes)
	case persistence.MethodBSI:
		runErr = e.runBSI(ctx, devicePath, device, onProgress, onBytes, verificationData)
	case persistence.MethodFastClear:
		strategy, err := runFastClear(ctx, devicePath, device, e.prober, e.tools, device.SizeBytes, onProgress)
		verificationData["strategy"] = string(strategy)
		verificationData["non_cryptographic"] = true
		runErr = err
	default:
		runErr = fmt.Errorf("unknown wipe method %q", record.Method)
	}

	if runErr != nil {
		e.terminateFailed(ctx, record, runErr.Error())
		return
	}

	after, err := e.prober.CaptureSMART(ctx, devicePath)
	if err != nil {
		e.logger.Warn("post-wipe SMART capture failed, continuing", "log_id", record.ID, "error", err)
	} else {
		record.SMARTSnapshotAfter = after
	}

	e.terminateCompleted(ctx, record, verificationData)
}

// runPatternPasses runs Passes full passes of one fixed pattern — the
// zeros/ones/random methods.
func (e *Engine) runPatternPasses(ctx context.Context, devicePath string, pattern patternKind, fallbackSize uint64, passes int, onProgress progressFunc, onBytes func(uint64)) error {
	for i := 0; i < passes; i++ {
		if err := writePass(ctx, devicePath, pattern, fallbackSize, i, passes, onProgress, onBytes); err != nil {
			return err
		}
	}
	return nil
}

// runDoD is the three-pass DoD-style method: zeros, ones, random.
func (e *Engine) runDoD(ctx context.Context, devicePath string, fallbackSize uint64, onProgress progressFunc, onBytes func(uint64)) error {
	patterns := []patternKind{patternZeros, patternOnes, patternRandom}
	for i, p := range patterns {
		if err := writePass(ctx, devicePath, p, fallbackSize, i, len(patterns), onProgress, onBytes); err != nil {
			return err
		}
	}
	return nil
}

// runBSI is the conformance method: one random pass on SSD/NVMe, two on
// rotational media, followed by the verification probe.
func (e *Engine) runBSI(ctx context.Context, devicePath string, device *types.Device, onProgress progressFunc, onBytes func(uint64), verificationData map[string]any) error {
	passes := 2
	if e.classifiesAsFlash(ctx, devicePath, device) {
		passes = 1
	}

	for i := 0; i < passes; i++ {
		if err := writePass(ctx, devicePath, patternRandom, device.SizeBytes, i, passes, onProgress, onBytes); err != nil {
			return err
		}
	}

	verificationData["passes"] = passes

	totalSize := device.SizeBytes
	samples, anyRandom, err := verifyBSI(devicePath, totalSize)
	if err != nil {
		e.logger.Warn("bsi verification probe failed, recording and continuing", "device_path", devicePath, "error", err)
		verificationData["verification_error"] = err.Error()
		return nil
	}

	verificationData["samples"] = samples
	verificationData["appears_random"] = anyRandom
	if !anyRandom {
		e.logger.Warn("bsi verification found no random sample", "device_path", devicePath)
	}
	return nil
}

// classifiesAsFlash re-queries devicePath's class through the platform
// probe port rather than trusting the *types.Device snapshot taken at
// Start — the same never-reuse-a-stale-classification discipline the
// boot-disk guard applies to its own destructive decision. device's own
// fields are the fallback if the probe call itself fails.
func (e *Engine) classifiesAsFlash(ctx context.Context, devicePath string, device *types.Device) bool {
	nvme, err := e.prober.IsNVMe(ctx, devicePath)
	if err != nil {
		e.logger.Warn("device-class probe (nvme) failed, falling back to last known classification",
			"device_path", devicePath, "error", err)
		nvme = device.IsNVMe()
	}
	if nvme {
		return true
	}

	rotational, err := e.prober.IsRotational(ctx, devicePath)
	if err != nil {
		e.logger.Warn("device-class probe (rotational) failed, falling back to last known classification",
			"device_path", devicePath, "error", err)
		return !device.IsRotational()
	}
	return !rotational
}

// terminateFailed transitions record to failed. The state machine never
// regresses a terminal record — UpdateWipeLog enforces that at the store
// boundary, so a double-terminate here is simply rejected and logged.
func (e *Engine) terminateFailed(ctx context.Context, record *persistence.WipeLogRecord, reason string) {
	now := time.Now().UTC()
	record.Status = persistence.StatusFailed
	record.EndTime = &now
	record.DurationSeconds = now.Sub(record.StartTime).Seconds()
	record.ErrorMessage = reason
	if err := e.store.UpdateWipeLog(ctx, record); err != nil {
		e.logger.Error("failed to persist failed wipe log", "log_id", record.ID, "error", err)
	}
	e.metrics.WipeEnded(string(persistence.StatusFailed), record.DurationSeconds)
	e.emit("wipe.failed", events.LevelError, map[string]string{"log_id": record.ID, "reason": reason})
}

func (e *Engine) terminateCompleted(ctx context.Context, record *persistence.WipeLogRecord, verificationData map[string]any) {
	now := time.Now().UTC()
	record.Status = persistence.StatusCompleted
	record.EndTime = &now
	record.DurationSeconds = now.Sub(record.StartTime).Seconds()
	record.ProgressPercent = 100
	record.ErrorMessage = ""
	// fast_clear's Verified=true means "ran to completion," never "a full
	// overwrite was verified" — the report projector surfaces that
	// distinction explicitly rather than this flag implying it.
	record.Verified = true
	record.VerificationData = verificationData
	if err := e.store.UpdateWipeLog(ctx, record); err != nil {
		e.logger.Error("failed to persist completed wipe log", "log_id", record.ID, "error", err)
	}
	e.metrics.WipeEnded(string(persistence.StatusCompleted), record.DurationSeconds)
	e.emit("wipe.completed", events.LevelInfo, map[string]string{"log_id": record.ID})
}
