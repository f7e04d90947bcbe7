// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/probe/types"
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

// fakeProber backs both the guard and the engine in these tests. mounted
// controls HasMountedPartition's answer for every device path.
type fakeProber struct {
	devices []*types.Device
	mounted map[string]bool
	smart   *types.SMARTSnapshot
}

func (f *fakeProber) Enumerate(context.Context) ([]*types.Device, error) {
	return f.devices, nil
}

func (f *fakeProber) RefreshDevice(_ context.Context, devicePath string) (*types.Device, error) {
	for _, d := range f.devices {
		if d.DevicePath == devicePath {
			return d, nil
		}
	}
	return nil, os.ErrNotExist
}

func (f *fakeProber) CaptureSMART(context.Context, string) (*types.SMARTSnapshot, error) {
	return f.smart, nil
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

func waitTerminal(t *testing.T, e *Engine, logID string, timeout time.Duration) *persistence.WipeLogRecord {
	t.Helper()
	deadline := time.After(timeout)
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for {
		rec, ok, err := e.Status(context.Background(), logID)
		require.NoError(t, err)
		require.True(t, ok)
		if rec.Terminal() {
			return rec
		}
		select {
		case <-deadline:
			t.Fatalf("wipe log %s did not reach a terminal state in time (status=%s)", logID, rec.Status)
		case <-tick.C:
		}
	}
}

func TestEngine_StartRefusesBootDisk(t *testing.T) {
	l := testLogger(t)
	devicePath := "/dev/sda"
	prober := &fakeProber{
		devices: []*types.Device{{DevicePath: devicePath, Type: types.DeviceTypeHDD}},
		mounted: map[string]bool{devicePath: true},
	}
	guard := wipeguard.NewGuard(l, prober)
	store := persistence.NewMemoryStore()
	engine := NewEngine(l, prober, guard, store, Config{MaxConcurrent: 2})

	accepted, message, logID := engine.Start(context.Background(), devicePath, persistence.MethodZeros, 1)
	require.False(t, accepted)
	require.Empty(t, logID)
	require.NotEmpty(t, message)
}

func TestEngine_StartRejectsDoubleStart(t *testing.T) {
	withCappedTestDevice(t)
	l := testLogger(t)
	devicePath := newTestDeviceFile(t, 1<<20)
	prober := &fakeProber{
		devices: []*types.Device{{DevicePath: devicePath, Type: types.DeviceTypeHDD, SizeBytes: 1 << 20}},
		mounted: map[string]bool{devicePath: false},
	}
	guard := wipeguard.NewGuard(l, prober)
	store := persistence.NewMemoryStore()
	engine := NewEngine(l, prober, guard, store, Config{MaxConcurrent: 2})

	accepted, _, logID := engine.Start(context.Background(), devicePath, persistence.MethodZeros, 1)
	require.True(t, accepted)
	require.NotEmpty(t, logID)

	accepted2, message2, logID2 := engine.Start(context.Background(), devicePath, persistence.MethodZeros, 1)
	require.False(t, accepted2)
	require.Empty(t, logID2)
	require.Contains(t, message2, "already")

	waitTerminal(t, engine, logID, 5*time.Second)
}

func TestEngine_CompletesZerosWipeOnDeviceFile(t *testing.T) {
	withCappedTestDevice(t)
	l := testLogger(t)
	devicePath := newTestDeviceFile(t, 2<<20)
	prober := &fakeProber{
		devices: []*types.Device{{DevicePath: devicePath, Type: types.DeviceTypeHDD, SizeBytes: 2 << 20}},
		mounted: map[string]bool{devicePath: false},
		smart:   &types.SMARTSnapshot{DeviceID: devicePath, Available: false},
	}
	guard := wipeguard.NewGuard(l, prober)
	store := persistence.NewMemoryStore()
	engine := NewEngine(l, prober, guard, store, Config{MaxConcurrent: 2})

	accepted, _, logID := engine.Start(context.Background(), devicePath, persistence.MethodZeros, 1)
	require.True(t, accepted)

	rec := waitTerminal(t, engine, logID, 5*time.Second)
	require.Equal(t, persistence.StatusCompleted, rec.Status)
	require.Equal(t, float64(100), rec.ProgressPercent)
	require.True(t, rec.Verified)
	require.NotNil(t, rec.EndTime)

	contents, err := os.ReadFile(devicePath)
	require.NoError(t, err)
	for _, b := range contents {
		require.Equal(t, byte(0), b)
	}
}

// TestEngine_TwoPassWipeObservesTwoDeviceFilledTerminations drives a
// 3 MiB device through a 2-pass zeros wipe and confirms each pass
// terminates via a real device-filled condition rather than a
// precomputed byte-count cutoff.
func TestEngine_TwoPassWipeObservesTwoDeviceFilledTerminations(t *testing.T) {
	var fills int
	orig := deviceOpener
	deviceOpener = newCappedTestOpener(func() { fills++ })
	t.Cleanup(func() { deviceOpener = orig })

	l := testLogger(t)
	devicePath := newTestDeviceFile(t, 3<<20)
	prober := &fakeProber{
		devices: []*types.Device{{DevicePath: devicePath, Type: types.DeviceTypeHDD, SizeBytes: 3 << 20}},
		mounted: map[string]bool{devicePath: false},
		smart:   &types.SMARTSnapshot{DeviceID: devicePath, Available: false},
	}
	guard := wipeguard.NewGuard(l, prober)
	store := persistence.NewMemoryStore()
	engine := NewEngine(l, prober, guard, store, Config{MaxConcurrent: 2})

	accepted, _, logID := engine.Start(context.Background(), devicePath, persistence.MethodZeros, 2)
	require.True(t, accepted)

	rec := waitTerminal(t, engine, logID, 5*time.Second)
	require.Equal(t, persistence.StatusCompleted, rec.Status)
	require.Equal(t, float64(100), rec.ProgressPercent)
	require.Equal(t, 2, fills)
}

// TestEngine_FailsOnMidPassIOError confirms a genuine I/O fault, distinct
// from a device-filled termination, fails the wipe log rather than being
// mistaken for successful completion.
func TestEngine_FailsOnMidPassIOError(t *testing.T) {
	orig := deviceOpener
	deviceOpener = func(string, uint64) (devicePassWriter, uint64, error) {
		return &failingDeviceWriter{failAfter: patternBufferSize / 2}, 4 << 20, nil
	}
	t.Cleanup(func() { deviceOpener = orig })

	l := testLogger(t)
	devicePath := newTestDeviceFile(t, 4<<20)
	prober := &fakeProber{
		devices: []*types.Device{{DevicePath: devicePath, Type: types.DeviceTypeHDD, SizeBytes: 4 << 20}},
		mounted: map[string]bool{devicePath: false},
		smart:   &types.SMARTSnapshot{DeviceID: devicePath, Available: false},
	}
	guard := wipeguard.NewGuard(l, prober)
	store := persistence.NewMemoryStore()
	engine := NewEngine(l, prober, guard, store, Config{MaxConcurrent: 2})

	accepted, _, logID := engine.Start(context.Background(), devicePath, persistence.MethodZeros, 1)
	require.True(t, accepted)

	rec := waitTerminal(t, engine, logID, 5*time.Second)
	require.Equal(t, persistence.StatusFailed, rec.Status)
	require.NotEmpty(t, rec.ErrorMessage)
	require.Less(t, rec.ProgressPercent, float64(100))
}

func TestEngine_ReconcileOnStartupFailsStaleInProgress(t *testing.T) {
	l := testLogger(t)
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	stale := &persistence.WipeLogRecord{
		ID:         "stale-log",
		DevicePath: "/dev/sdz",
		Method:     persistence.MethodZeros,
		Status:     persistence.StatusInProgress,
		StartTime:  time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, store.InsertWipeLog(ctx, stale))

	prober := &fakeProber{}
	guard := wipeguard.NewGuard(l, prober)
	engine := NewEngine(l, prober, guard, store, Config{MaxConcurrent: 2})

	require.NoError(t, engine.ReconcileOnStartup(ctx))

	rec, ok, err := store.GetWipeLog(ctx, "stale-log")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, persistence.StatusFailed, rec.Status)
	require.NotEmpty(t, rec.ErrorMessage)
}
