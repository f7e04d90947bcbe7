// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeguard

import (
	"context"
	"errors"
	"testing"

	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	devices     []*types.Device
	enumErr     error
	mountedBy   map[string]bool
	mountErrBy  map[string]error
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
	return &types.SMARTSnapshot{DeviceID: devicePath}, nil
}

func (f *fakeProber) HasMountedPartition(ctx context.Context, devicePath string) (bool, error) {
	if err, ok := f.mountErrBy[devicePath]; ok {
		return false, err
	}
	return f.mountedBy[devicePath], nil
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
	l, err := logger.New(logger.Config{LogLevel: "debug"})
	require.NoError(t, err)
	return l
}

func TestVerifyNotBootDisk_MountedRefused(t *testing.T) {
	prober := &fakeProber{
		devices:   []*types.Device{{DevicePath: "/dev/sda"}, {DevicePath: "/dev/sdb"}},
		mountedBy: map[string]bool{"/dev/sda": true},
	}
	g := NewGuard(testLogger(t), prober)

	safe, reason := g.VerifyNotBootDisk(context.Background(), "/dev/sda")
	assert.False(t, safe)
	assert.NotEmpty(t, reason)
}

func TestVerifyNotBootDisk_NonBootAccepted(t *testing.T) {
	prober := &fakeProber{
		devices:   []*types.Device{{DevicePath: "/dev/sda"}, {DevicePath: "/dev/sdb"}},
		mountedBy: map[string]bool{"/dev/sda": true},
	}
	g := NewGuard(testLogger(t), prober)

	safe, reason := g.VerifyNotBootDisk(context.Background(), "/dev/sdb")
	assert.True(t, safe)
	assert.Empty(t, reason)
}

func TestVerifyNotBootDisk_NotInEnumerationRefused(t *testing.T) {
	prober := &fakeProber{
		devices: []*types.Device{{DevicePath: "/dev/sda"}},
	}
	g := NewGuard(testLogger(t), prober)

	safe, reason := g.VerifyNotBootDisk(context.Background(), "/dev/sdz")
	assert.False(t, safe)
	assert.Contains(t, reason, "not present")
}

func TestVerifyNotBootDisk_EnumerationFailureRefusesAll(t *testing.T) {
	prober := &fakeProber{enumErr: errors.New("lsblk not found")}
	g := NewGuard(testLogger(t), prober)

	safe, reason := g.VerifyNotBootDisk(context.Background(), "/dev/sda")
	assert.False(t, safe)
	assert.Contains(t, reason, "enumeration failed")
}

func TestVerifyNotBootDisk_MountCheckFailureRefuses(t *testing.T) {
	prober := &fakeProber{
		devices:    []*types.Device{{DevicePath: "/dev/sda"}},
		mountErrBy: map[string]error{"/dev/sda": errors.New("udevadm timed out")},
	}
	g := NewGuard(testLogger(t), prober)

	safe, reason := g.VerifyNotBootDisk(context.Background(), "/dev/sda")
	assert.False(t, safe)
	assert.Contains(t, reason, "mount check failed")
}

func TestBelongsToDevice(t *testing.T) {
	cases := []struct {
		partition, whole string
		want             bool
	}{
		{"/dev/sda", "/dev/sda", true},
		{"/dev/sda1", "/dev/sda", true},
		{"/dev/nvme0n1p2", "/dev/nvme0n1", true},
		{"/dev/sdb1", "/dev/sda", false},
		{"/dev/sda", "/dev/sd", false}, // prefix matches but suffix "a" isn't a partition-number suffix
	}
	for _, c := range cases {
		got := belongsToDevice(c.partition, c.whole)
		assert.Equal(t, c.want, got, "belongsToDevice(%q, %q)", c.partition, c.whole)
	}
}
