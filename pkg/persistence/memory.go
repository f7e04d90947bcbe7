// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package persistence

import (
	"context"
	"strings"
	"sync"

	"github.com/stratastor/diskwiper/pkg/errors"
)

// MemoryStore is an in-process Store, used by the engine/guard/coordinator
// unit tests so they never touch a real block device or filesystem.
//
// Wipe logs live in a sync.Map rather than behind devicesMu: each worker
// owns a disjoint key (its own log ID) and commits progress updates on its
// own hot path, so two workers touching different records must not
// contend with one another the way a single shared RWMutex would force
// them to.
type MemoryStore struct {
	devicesMu sync.RWMutex
	devices   map[string]*DeviceRecord // keyed by ID

	logs sync.Map // id (string) -> *WipeLogRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices: make(map[string]*DeviceRecord),
	}
}

func (m *MemoryStore) InsertDevice(_ context.Context, d *DeviceRecord) error {
	m.devicesMu.Lock()
	defer m.devicesMu.Unlock()
	cp := *d
	m.devices[d.ID] = &cp
	return nil
}

func (m *MemoryStore) FindDeviceBySerial(_ context.Context, serial string) (*DeviceRecord, bool, error) {
	m.devicesMu.RLock()
	defer m.devicesMu.RUnlock()
	for _, d := range m.devices {
		if d.SerialNumber == serial {
			cp := *d
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (m *MemoryStore) UpdateDevice(_ context.Context, d *DeviceRecord) error {
	m.devicesMu.Lock()
	defer m.devicesMu.Unlock()
	if _, ok := m.devices[d.ID]; !ok {
		return errors.New(errors.InventoryDeviceNotFound, d.ID)
	}
	cp := *d
	m.devices[d.ID] = &cp
	return nil
}

func (m *MemoryStore) ListDevices(_ context.Context) ([]*DeviceRecord, error) {
	m.devicesMu.RLock()
	defer m.devicesMu.RUnlock()
	out := make([]*DeviceRecord, 0, len(m.devices))
	for _, d := range m.devices {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) InsertWipeLog(_ context.Context, r *WipeLogRecord) error {
	cp := *r
	m.logs.Store(r.ID, &cp)
	return nil
}

func (m *MemoryStore) UpdateWipeLog(_ context.Context, r *WipeLogRecord) error {
	v, ok := m.logs.Load(r.ID)
	if !ok {
		return errors.New(errors.WipeNotFound, r.ID)
	}
	existing := v.(*WipeLogRecord)
	if existing.Terminal() && existing.Status != r.Status {
		return errors.New(errors.WipeValidationFailed, "refusing to mutate a terminal wipe log").
			WithMetadata("log_id", r.ID).
			WithMetadata("from_status", string(existing.Status)).
			WithMetadata("to_status", string(r.Status))
	}
	cp := *r
	m.logs.Store(r.ID, &cp)
	return nil
}

func (m *MemoryStore) GetWipeLog(_ context.Context, id string) (*WipeLogRecord, bool, error) {
	v, ok := m.logs.Load(id)
	if !ok {
		return nil, false, nil
	}
	cp := *v.(*WipeLogRecord)
	return &cp, true, nil
}

func (m *MemoryStore) ListWipeLogs(_ context.Context) ([]*WipeLogRecord, error) {
	var out []*WipeLogRecord
	m.logs.Range(func(_, v any) bool {
		cp := *v.(*WipeLogRecord)
		out = append(out, &cp)
		return true
	})
	return out, nil
}

func (m *MemoryStore) Search(_ context.Context, query string) ([]*WipeLogRecord, error) {
	q := strings.ToLower(query)
	var out []*WipeLogRecord
	m.logs.Range(func(_, v any) bool {
		r := v.(*WipeLogRecord)
		if strings.Contains(strings.ToLower(r.DevicePath), q) ||
			strings.Contains(strings.ToLower(r.SerialNumber), q) ||
			strings.Contains(strings.ToLower(r.Model), q) {
			cp := *r
			out = append(out, &cp)
		}
		return true
	})
	return out, nil
}
