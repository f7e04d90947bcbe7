// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_DeviceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	d := &DeviceRecord{
		ID:           "dev-1",
		SerialNumber: "SN123",
		DevicePath:   "/dev/sda",
		Model:        "WDC WD10",
		SizeBytes:    1000,
		FirstSeen:    time.Now().UTC(),
		LastSeen:     time.Now().UTC(),
	}
	require.NoError(t, store.InsertDevice(ctx, d))

	found, ok, err := store.FindDeviceBySerial(ctx, "SN123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/dev/sda", found.DevicePath)

	found.DevicePath = "/dev/sdb"
	require.NoError(t, store.UpdateDevice(ctx, found))

	again, ok, err := store.FindDeviceBySerial(ctx, "SN123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/dev/sdb", again.DevicePath)

	list, err := store.ListDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore_WipeLogTerminalRefusesMutation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	log := &WipeLogRecord{
		ID:         "log-1",
		DevicePath: "/dev/sdb",
		Method:     MethodZeros,
		Passes:     1,
		Status:     StatusCompleted,
	}
	require.NoError(t, store.InsertWipeLog(ctx, log))

	mutated := *log
	mutated.Status = StatusInProgress
	err := store.UpdateWipeLog(ctx, &mutated)
	assert.Error(t, err)

	stored, ok, err := store.GetWipeLog(ctx, "log-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestMemoryStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.InsertWipeLog(ctx, &WipeLogRecord{
		ID: "a", DevicePath: "/dev/sda", Model: "Samsung SSD", Status: StatusPending,
	}))
	require.NoError(t, store.InsertWipeLog(ctx, &WipeLogRecord{
		ID: "b", DevicePath: "/dev/sdb", Model: "WDC HDD", Status: StatusPending,
	}))

	results, err := store.Search(ctx, "samsung")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}
