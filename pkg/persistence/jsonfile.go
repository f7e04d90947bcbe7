// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package persistence

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/logger"
)

const (
	devicesFileName = "devices.json"
	wipeLogsDirName = "wipelogs"
)

// JSONFileStore persists device records as one shared JSON file, and wipe
// logs as one JSON file per record under a wipelogs/ subdirectory, each
// written atomically (temp file + rename). Wipe logs are sharded this way
// — rather than one shared file behind one lock — because independent
// workers commit progress updates concurrently on their own hot path;
// rewriting a single shared file on every update would serialize every
// worker's writes on every other worker's, regardless of which record
// changed. recordLocks hands out one *sync.Mutex per wipe-log ID so two
// records' read-modify-write-file cycles never wait on each other; logsMu
// only ever guards the in-memory map's own bookkeeping, never a file write.
type JSONFileStore struct {
	logger logger.Logger
	dir    string

	mu      sync.RWMutex
	devices map[string]*DeviceRecord

	logsMu sync.RWMutex
	logs   map[string]*WipeLogRecord

	recordLocksMu sync.Mutex
	recordLocks   map[string]*sync.Mutex
}

// NewJSONFileStore creates a store rooted at dir, loading any existing
// records found there. A corrupted file is backed up and the store starts
// empty rather than failing to construct.
func NewJSONFileStore(l logger.Logger, dir string) (*JSONFileStore, error) {
	s := &JSONFileStore{
		logger:      l,
		dir:         dir,
		devices:     make(map[string]*DeviceRecord),
		logs:        make(map[string]*WipeLogRecord),
		recordLocks: make(map[string]*sync.Mutex),
	}
	if err := os.MkdirAll(s.wipeLogsDir(), 0755); err != nil {
		return nil, errors.Wrap(err, errors.FSError).WithMetadata("path", s.wipeLogsDir())
	}
	if err := s.loadDevices(); err != nil {
		return nil, err
	}
	if err := s.loadWipeLogs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONFileStore) devicesPath() string { return filepath.Join(s.dir, devicesFileName) }
func (s *JSONFileStore) wipeLogsDir() string { return filepath.Join(s.dir, wipeLogsDirName) }
func (s *JSONFileStore) wipeLogPath(id string) string {
	return filepath.Join(s.wipeLogsDir(), id+".json")
}

// lockForRecord returns the mutex serializing id's own read-modify-write
// cycle, creating one on first use. Distinct IDs get distinct mutexes, so
// concurrent updates to different wipe logs never block on each other.
func (s *JSONFileStore) lockForRecord(id string) *sync.Mutex {
	s.recordLocksMu.Lock()
	defer s.recordLocksMu.Unlock()
	l, ok := s.recordLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.recordLocks[id] = l
	}
	return l
}

func (s *JSONFileStore) loadDevices() error {
	records, err := loadRecords[DeviceRecord](s.logger, s.devicesPath())
	if err != nil {
		return err
	}
	for _, d := range records {
		s.devices[d.ID] = d
	}
	return nil
}

// loadWipeLogs reads every wipelogs/*.json record file independently, so a
// single corrupted record is backed up and skipped without discarding
// every other wipe log the way a single shared array file would.
func (s *JSONFileStore) loadWipeLogs() error {
	entries, err := os.ReadDir(s.wipeLogsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.FSError).WithMetadata("path", s.wipeLogsDir())
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.wipeLogsDir(), entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, errors.FSError).WithMetadata("path", path)
		}

		var r WipeLogRecord
		if err := json.Unmarshal(data, &r); err != nil {
			s.logger.Warn("corrupted wipe log record, backing up and skipping", "path", path, "error", err)
			_ = os.Rename(path, path+".corrupted")
			continue
		}
		s.logs[r.ID] = &r
	}
	return nil
}

// loadRecords reads a JSON array of *T from path, tolerating a missing
// file (empty result) and backing up a corrupted one instead of failing.
func loadRecords[T any](l logger.Logger, path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.FSError).WithMetadata("path", path)
	}

	var records []*T
	if err := json.Unmarshal(data, &records); err != nil {
		l.Warn("corrupted persistence file, backing up and starting fresh", "path", path, "error", err)
		backupPath := path + ".corrupted"
		_ = os.Rename(path, backupPath)
		return nil, nil
	}
	return records, nil
}

// writeAtomic marshals v to path via a temp file plus rename, so a crash
// mid-write never leaves a half-written record file behind.
func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.FSError).WithMetadata("path", path)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, errors.FSError).WithMetadata("path", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, errors.FSError).WithMetadata("path", path)
	}
	return nil
}

func (s *JSONFileStore) saveDevicesLocked() error {
	all := make([]*DeviceRecord, 0, len(s.devices))
	for _, d := range s.devices {
		all = append(all, d)
	}
	return writeAtomic(s.devicesPath(), all)
}

func (s *JSONFileStore) InsertDevice(_ context.Context, d *DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.devices[d.ID] = &cp
	return s.saveDevicesLocked()
}

func (s *JSONFileStore) FindDeviceBySerial(_ context.Context, serial string) (*DeviceRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.devices {
		if d.SerialNumber == serial {
			cp := *d
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (s *JSONFileStore) UpdateDevice(_ context.Context, d *DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[d.ID]; !ok {
		return errors.New(errors.InventoryDeviceNotFound, d.ID)
	}
	cp := *d
	s.devices[d.ID] = &cp
	return s.saveDevicesLocked()
}

func (s *JSONFileStore) ListDevices(_ context.Context) ([]*DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*DeviceRecord, 0, len(s.devices))
	for _, d := range s.devices {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (s *JSONFileStore) InsertWipeLog(_ context.Context, r *WipeLogRecord) error {
	recLock := s.lockForRecord(r.ID)
	recLock.Lock()
	defer recLock.Unlock()

	cp := *r
	if err := writeAtomic(s.wipeLogPath(r.ID), &cp); err != nil {
		return err
	}

	s.logsMu.Lock()
	s.logs[r.ID] = &cp
	s.logsMu.Unlock()
	return nil
}

func (s *JSONFileStore) UpdateWipeLog(_ context.Context, r *WipeLogRecord) error {
	// recLock serializes only r.ID's own read-modify-write-file cycle — a
	// worker updating a different record acquires a different mutex and
	// proceeds without waiting on this one.
	recLock := s.lockForRecord(r.ID)
	recLock.Lock()
	defer recLock.Unlock()

	s.logsMu.RLock()
	existing, ok := s.logs[r.ID]
	s.logsMu.RUnlock()
	if !ok {
		return errors.New(errors.WipeNotFound, r.ID)
	}
	if existing.Terminal() && existing.Status != r.Status {
		return errors.New(errors.WipeValidationFailed, "refusing to mutate a terminal wipe log").
			WithMetadata("log_id", r.ID)
	}

	cp := *r
	if err := writeAtomic(s.wipeLogPath(r.ID), &cp); err != nil {
		return err
	}

	s.logsMu.Lock()
	s.logs[r.ID] = &cp
	s.logsMu.Unlock()
	return nil
}

func (s *JSONFileStore) GetWipeLog(_ context.Context, id string) (*WipeLogRecord, bool, error) {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	r, ok := s.logs[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

func (s *JSONFileStore) ListWipeLogs(_ context.Context) ([]*WipeLogRecord, error) {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	out := make([]*WipeLogRecord, 0, len(s.logs))
	for _, r := range s.logs {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *JSONFileStore) Search(_ context.Context, query string) ([]*WipeLogRecord, error) {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	q := strings.ToLower(query)
	var out []*WipeLogRecord
	for _, r := range s.logs {
		if strings.Contains(strings.ToLower(r.DevicePath), q) ||
			strings.Contains(strings.ToLower(r.SerialNumber), q) ||
			strings.Contains(strings.ToLower(r.Model), q) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}
