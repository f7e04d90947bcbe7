// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	devices []*types.Device
	enumErr error
}

func (f *fakeProber) Enumerate(ctx context.Context) ([]*types.Device, error) {
	return f.devices, f.enumErr
}
func (f *fakeProber) RefreshDevice(ctx context.Context, devicePath string) (*types.Device, error) {
	for _, d := range f.devices {
		if d.DevicePath == devicePath {
			return d, nil
		}
	}
	return nil, errors.New("not found")
}
func (f *fakeProber) CaptureSMART(ctx context.Context, devicePath string) (*types.SMARTSnapshot, error) {
	return &types.SMARTSnapshot{DeviceID: devicePath, Available: true, OverallStatus: "PASSED"}, nil
}
func (f *fakeProber) HasMountedPartition(ctx context.Context, devicePath string) (bool, error) {
	return false, nil
}
func (f *fakeProber) IsNVMe(ctx context.Context, devicePath string) (bool, error) {
	for _, d := range f.devices {
		if d.DevicePath == devicePath {
			return d.IsNVMe(), nil
		}
	}
	return false, errors.New("not found")
}
func (f *fakeProber) IsRotational(ctx context.Context, devicePath string) (bool, error) {
	for _, d := range f.devices {
		if d.DevicePath == devicePath {
			return d.IsRotational(), nil
		}
	}
	return false, errors.New("not found")
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{LogLevel: "debug"})
	require.NoError(t, err)
	return l
}

func TestScan_InsertsNewDeviceWithSerial(t *testing.T) {
	prober := &fakeProber{devices: []*types.Device{
		{DevicePath: "/dev/sda", Serial: "SN1", Model: "WDC", SizeBytes: 2048},
	}}
	store := persistence.NewMemoryStore()
	svc := NewService(testLogger(t), prober, store)

	records, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SN1", records[0].SerialNumber)
	assert.False(t, records[0].SyntheticID)
	assert.Equal(t, "2.0 KiB", records[0].SizeHuman)
}

func TestScan_SyntheticIdentifierWhenSerialMissing(t *testing.T) {
	prober := &fakeProber{devices: []*types.Device{
		{DevicePath: "/dev/sdz", Model: "Unknown"},
	}}
	store := persistence.NewMemoryStore()
	svc := NewService(testLogger(t), prober, store)

	records, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].SyntheticID)
	assert.Equal(t, "UNKNOWN__dev_sdz", records[0].SerialNumber)
}

func TestScan_ReconcilesExistingDeviceBySerial(t *testing.T) {
	store := persistence.NewMemoryStore()
	prober := &fakeProber{devices: []*types.Device{
		{DevicePath: "/dev/sda", Serial: "SN1", Model: "WDC", SizeBytes: 2048},
	}}
	svc := NewService(testLogger(t), prober, store)

	first, err := svc.Scan(context.Background())
	require.NoError(t, err)
	firstID := first[0].ID

	prober.devices[0].DevicePath = "/dev/sdb" // renumbered after reboot
	second, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, firstID, second[0].ID)
	assert.Equal(t, "/dev/sdb", second[0].DevicePath)

	all, err := store.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestScan_EnumerationFailurePropagates(t *testing.T) {
	prober := &fakeProber{enumErr: errors.New("lsblk unavailable")}
	store := persistence.NewMemoryStore()
	svc := NewService(testLogger(t), prober, store)

	_, err := svc.Scan(context.Background())
	assert.Error(t, err)
}
