// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package coordinator serializes operator intents — scan, wipe start,
// status, active, search — into calls against the inventory service and
// the wipe engine. It is the CLI's only collaborator below the command
// tree: no handler in cmd/ touches the engine, the guard, or the store
// directly.
package coordinator

import (
	"context"
	"strings"

	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/inventory"
	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/wipeengine"
	"github.com/stratastor/logger"
)

const (
	minPasses = 1
	maxPasses = 10
)

// OutcomeClass is the HTTP-style status class carried on a refused
// request — named for a future presentation layer to map onto a real
// status code, though none is built here.
type OutcomeClass string

const (
	ClassSafety     OutcomeClass = "safety"
	ClassValidation OutcomeClass = "validation"
	ClassConflict   OutcomeClass = "conflict"
	ClassInternal   OutcomeClass = "internal"
)

// WipeOutcome is the coordinator's structured response to a wipe-start
// request: either Accepted with a LogID, or not, with a Class and Reason.
type WipeOutcome struct {
	Accepted bool
	LogID    string
	Class    OutcomeClass
	Reason   string
}

// acceptedMethods is the operator-facing method set. "ones" exists only
// as an internal pass within "dod" and is never accepted here.
var acceptedMethods = map[persistence.WipeMethod]bool{
	persistence.MethodZeros:     true,
	persistence.MethodRandom:    true,
	persistence.MethodDoD:       true,
	persistence.MethodBSI:       true,
	persistence.MethodFastClear: true,
}

// Coordinator is constructed once at process start and injected into the
// CLI command tree.
type Coordinator struct {
	logger    logger.Logger
	inventory *inventory.Service
	engine    *wipeengine.Engine
	store     persistence.Store
}

func New(l logger.Logger, inv *inventory.Service, engine *wipeengine.Engine, store persistence.Store) *Coordinator {
	return &Coordinator{logger: l, inventory: inv, engine: engine, store: store}
}

// Scan reconciles the inventory against the platform probe and returns
// the current device set.
func (c *Coordinator) Scan(ctx context.Context) ([]*persistence.DeviceRecord, error) {
	return c.inventory.Scan(ctx)
}

// ListDevices returns the persisted device inventory without re-probing.
func (c *Coordinator) ListDevices(ctx context.Context) ([]*persistence.DeviceRecord, error) {
	return c.store.ListDevices(ctx)
}

// StartWipe validates an operator's wipe request and, if accepted,
// delegates to the engine. Methods other than dod/bsi/fast_clear reject
// passes outside [1, 10]; dod/bsi/fast_clear ignore the operator's passes
// value entirely (the engine's per-method dispatch fixes its own pass
// count).
func (c *Coordinator) StartWipe(ctx context.Context, devicePath string, method persistence.WipeMethod, passes int) WipeOutcome {
	if !acceptedMethods[method] {
		return WipeOutcome{
			Class:  ClassValidation,
			Reason: errors.New(errors.CoordUnknownMethod, string(method)).Error(),
		}
	}

	if method == persistence.MethodZeros || method == persistence.MethodRandom {
		if passes < minPasses || passes > maxPasses {
			return WipeOutcome{
				Class:  ClassValidation,
				Reason: errors.New(errors.CoordPassesOutOfRange, "passes must be between 1 and 10").Error(),
			}
		}
	} else {
		passes = 1
	}

	accepted, message, logID := c.engine.Start(ctx, devicePath, method, passes)
	if !accepted {
		return WipeOutcome{Class: classifyRefusal(message), Reason: message}
	}
	return WipeOutcome{Accepted: true, LogID: logID}
}

// classifyRefusal maps the engine's free-text refusal reason onto the
// coordinator's class taxonomy. The engine itself never returns a class
// (the boot-disk guard and the registry speak in plain reasons); the
// coordinator is the single place that taxonomy is assigned.
func classifyRefusal(reason string) OutcomeClass {
	switch {
	case strings.Contains(reason, "already has an active wipe"), strings.Contains(reason, "too many wipes already running"):
		return ClassConflict
	case strings.Contains(reason, "device not present"), strings.Contains(reason, "boot"), strings.Contains(reason, "mount"), strings.Contains(reason, "enumeration failed"), strings.Contains(reason, "allow-listed"):
		return ClassSafety
	default:
		return ClassInternal
	}
}

// Status returns one wipe log by id.
func (c *Coordinator) Status(ctx context.Context, logID string) (*persistence.WipeLogRecord, bool, error) {
	return c.engine.Status(ctx, logID)
}

// Active returns every wipe currently owned by a running worker.
func (c *Coordinator) Active() []wipeengine.StatusRow {
	return c.engine.Active()
}

// Search looks up wipe logs by device path, serial, or model substring.
func (c *Coordinator) Search(ctx context.Context, query string) ([]*persistence.WipeLogRecord, error) {
	return c.store.Search(ctx, query)
}
