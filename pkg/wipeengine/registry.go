// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package wipeengine executes, tracks, and persists wipe jobs: the
// largest single component of the service. An explicitly owned registry
// enforces at most one worker per device path; the engine itself is
// constructed once at process start and injected wherever it's needed,
// never reached through a package-level singleton.
package wipeengine

import (
	"sync"
)

// ActiveEntry is one row of the active-wipe registry: the process-local,
// unpersisted view of a wipe currently owned by a running worker.
type ActiveEntry struct {
	DevicePath string
	LogID      string
	Status     string // starting|running
	Progress   float64
}

// Registry is the mutex-guarded, explicitly constructed active-wipe set.
// It is held only across membership tests and insert/remove, never
// across device I/O — see the worker protocol in engine.go.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*ActiveEntry // keyed by device path
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*ActiveEntry)}
}

// TryStart atomically checks for an existing entry and inserts one if
// absent, returning false if the device already has an active wipe.
func (r *Registry) TryStart(devicePath, logID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[devicePath]; exists {
		return false
	}
	r.entries[devicePath] = &ActiveEntry{DevicePath: devicePath, LogID: logID, Status: "starting"}
	return true
}

func (r *Registry) SetStatus(devicePath, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[devicePath]; ok {
		e.Status = status
	}
}

func (r *Registry) SetProgress(devicePath string, progress float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[devicePath]; ok {
		e.Progress = progress
	}
}

func (r *Registry) Remove(devicePath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, devicePath)
}

// Has reports whether devicePath currently has an active registry entry.
func (r *Registry) Has(devicePath string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[devicePath]
	return ok
}

// Snapshot returns a copy of every active entry — the shape "get all
// active wipes" adopts from the original implementation's status rows.
func (r *Registry) Snapshot() []ActiveEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ActiveEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out
}
