// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stratastor/diskwiper/pkg/inventory"
	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stratastor/diskwiper/pkg/wipeengine"
	"github.com/stratastor/diskwiper/pkg/wipeguard"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{LogLevel: "debug"})
	require.NoError(t, err)
	return l
}

type fakeProber struct {
	devices []*types.Device
	mounted map[string]bool
}

func (f *fakeProber) Enumerate(context.Context) ([]*types.Device, error) { return f.devices, nil }

func (f *fakeProber) RefreshDevice(_ context.Context, devicePath string) (*types.Device, error) {
	for _, d := range f.devices {
		if d.DevicePath == devicePath {
			return d, nil
		}
	}
	return nil, os.ErrNotExist
}

func (f *fakeProber) CaptureSMART(context.Context, string) (*types.SMARTSnapshot, error) {
	return &types.SMARTSnapshot{Available: false}, nil
}

func (f *fakeProber) HasMountedPartition(_ context.Context, devicePath string) (bool, error) {
	return f.mounted[devicePath], nil
}

func (f *fakeProber) IsNVMe(_ context.Context, devicePath string) (bool, error) {
	for _, d := range f.devices {
		if d.DevicePath == devicePath {
			return d.IsNVMe(), nil
		}
	}
	return false, os.ErrNotExist
}

func (f *fakeProber) IsRotational(_ context.Context, devicePath string) (bool, error) {
	for _, d := range f.devices {
		if d.DevicePath == devicePath {
			return d.IsRotational(), nil
		}
	}
	return false, os.ErrNotExist
}

func newTestDeviceFile(t *testing.T, size int64) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "device-*.img")
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	path := f.Name()
	require.NoError(t, f.Close())
	return path
}

func newTestCoordinator(t *testing.T, devicePath string, mounted bool) (*Coordinator, persistence.Store) {
	t.Helper()
	l := testLogger(t)
	prober := &fakeProber{
		devices: []*types.Device{{DevicePath: devicePath, Type: types.DeviceTypeHDD, SizeBytes: 1 << 20}},
		mounted: map[string]bool{devicePath: mounted},
	}
	guard := wipeguard.NewGuard(l, prober)
	store := persistence.NewMemoryStore()
	engine := wipeengine.NewEngine(l, prober, guard, store, wipeengine.Config{MaxConcurrent: 2})
	inv := inventory.NewService(l, prober, store)
	return New(l, inv, engine, store), store
}

func TestStartWipe_RejectsUnknownMethod(t *testing.T) {
	devicePath := newTestDeviceFile(t, 1<<20)
	c, _ := newTestCoordinator(t, devicePath, false)

	outcome := c.StartWipe(context.Background(), devicePath, persistence.WipeMethod("shred"), 1)
	require.False(t, outcome.Accepted)
	require.Equal(t, ClassValidation, outcome.Class)
}

func TestStartWipe_RejectsOnesDirectly(t *testing.T) {
	devicePath := newTestDeviceFile(t, 1<<20)
	c, _ := newTestCoordinator(t, devicePath, false)

	outcome := c.StartWipe(context.Background(), devicePath, persistence.MethodOnes, 1)
	require.False(t, outcome.Accepted)
	require.Equal(t, ClassValidation, outcome.Class)
}

func TestStartWipe_RejectsPassesOutOfRange(t *testing.T) {
	devicePath := newTestDeviceFile(t, 1<<20)
	c, _ := newTestCoordinator(t, devicePath, false)

	outcome := c.StartWipe(context.Background(), devicePath, persistence.MethodZeros, 11)
	require.False(t, outcome.Accepted)
	require.Equal(t, ClassValidation, outcome.Class)

	outcome = c.StartWipe(context.Background(), devicePath, persistence.MethodZeros, 0)
	require.False(t, outcome.Accepted)
	require.Equal(t, ClassValidation, outcome.Class)
}

func TestStartWipe_RefusesBootDiskAsSafety(t *testing.T) {
	devicePath := newTestDeviceFile(t, 1<<20)
	c, _ := newTestCoordinator(t, devicePath, true)

	outcome := c.StartWipe(context.Background(), devicePath, persistence.MethodZeros, 1)
	require.False(t, outcome.Accepted)
	require.Equal(t, ClassSafety, outcome.Class)
}

func TestStartWipe_DoubleStartIsConflict(t *testing.T) {
	devicePath := newTestDeviceFile(t, 1<<20)
	c, _ := newTestCoordinator(t, devicePath, false)

	first := c.StartWipe(context.Background(), devicePath, persistence.MethodZeros, 1)
	require.True(t, first.Accepted)

	second := c.StartWipe(context.Background(), devicePath, persistence.MethodZeros, 1)
	require.False(t, second.Accepted)
	require.Equal(t, ClassConflict, second.Class)

	deadline := time.After(5 * time.Second)
	for {
		rec, ok, err := c.Status(context.Background(), first.LogID)
		require.NoError(t, err)
		require.True(t, ok)
		if rec.Terminal() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("wipe did not finish")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartWipe_IgnoresPassesForFastClear(t *testing.T) {
	devicePath := newTestDeviceFile(t, 1<<20)
	c, _ := newTestCoordinator(t, devicePath, false)

	outcome := c.StartWipe(context.Background(), devicePath, persistence.MethodFastClear, 7)
	require.True(t, outcome.Accepted)
}
