// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"context"
	"os"
	"testing"

	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stretchr/testify/require"
)

func TestRunFastClear_HDDUsesEdgeOverwriteOnly(t *testing.T) {
	path := newTestDeviceFile(t, 64<<20)
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	buf := make([]byte, 64<<20)
	for i := range buf {
		buf[i] = 0xAB
	}
	_, err = f.WriteAt(buf, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	device := &types.Device{DevicePath: path, Type: types.DeviceTypeHDD, Rotational: true, SizeBytes: 64 << 20}
	prober := &fakeProber{devices: []*types.Device{device}}

	var progressSeen []float64
	strategy, err := runFastClear(context.Background(), path, device, prober, FastClearTools{}, device.SizeBytes, func(p float64) {
		progressSeen = append(progressSeen, p)
	})
	require.NoError(t, err)
	require.Equal(t, strategyEdgeOverwrite, strategy)
	require.NotEmpty(t, progressSeen)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for i := 0; i < edgeOverwriteSize; i++ {
		require.Equalf(t, byte(0), data[i], "start region byte %d not zeroed", i)
	}
	for i := len(data) - edgeOverwriteSize; i < len(data); i++ {
		require.Equalf(t, byte(0), data[i], "tail region byte %d not zeroed", i)
	}
	require.Equal(t, byte(0xAB), data[len(data)/2])
}

func TestRunFastClear_NVMeWithoutToolFallsBackToEdgeOverwrite(t *testing.T) {
	path := newTestDeviceFile(t, 32<<20)
	device := &types.Device{DevicePath: path, Type: types.DeviceTypeNVMe, Interface: types.InterfaceNVMe, SizeBytes: 32 << 20}
	prober := &fakeProber{devices: []*types.Device{device}}

	strategy, err := runFastClear(context.Background(), path, device, prober, FastClearTools{}, device.SizeBytes, nil)
	require.NoError(t, err)
	require.Equal(t, strategyNVMeFallback, strategy)
}

func TestRunFastClear_SSDWithoutToolsFallsBackToEdgeOverwrite(t *testing.T) {
	path := newTestDeviceFile(t, 32<<20)
	device := &types.Device{DevicePath: path, Type: types.DeviceTypeSSD, Rotational: false, SizeBytes: 32 << 20}
	prober := &fakeProber{devices: []*types.Device{device}}

	strategy, err := runFastClear(context.Background(), path, device, prober, FastClearTools{}, device.SizeBytes, nil)
	require.NoError(t, err)
	require.Equal(t, strategySSDTrim, strategy)
}
