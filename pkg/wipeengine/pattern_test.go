// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWritePass_ZerosFillsFile(t *testing.T) {
	withCappedTestDevice(t)
	path := newTestDeviceFile(t, 3<<20)
	var lastProgress float64
	var totalBytes uint64
	err := writePass(context.Background(), path, patternZeros, 3<<20, 0, 1, func(p float64) {
		lastProgress = p
	}, func(n uint64) {
		totalBytes += n
	})
	require.NoError(t, err)
	require.Greater(t, lastProgress, float64(0))
	require.Equal(t, uint64(3<<20), totalBytes)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, make([]byte, len(data))))
}

func TestWritePass_OnesFillsFile(t *testing.T) {
	withCappedTestDevice(t)
	path := newTestDeviceFile(t, 2<<20)
	err := writePass(context.Background(), path, patternOnes, 2<<20, 0, 1, nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := bytes.Repeat([]byte{0xFF}, len(data))
	require.True(t, bytes.Equal(data, want))
}

func TestWritePass_ZeroSizeDeviceCompletesImmediately(t *testing.T) {
	path := newTestDeviceFile(t, 0)
	err := writePass(context.Background(), path, patternZeros, 0, 0, 1, func(float64) {
		t.Fatal("progress callback should never fire for a zero-size device")
	}, nil)
	require.NoError(t, err)
}

func TestWritePass_ContextCancellationStopsLoop(t *testing.T) {
	path := newTestDeviceFile(t, 64<<20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := writePass(ctx, path, patternZeros, 64<<20, 0, 1, nil, nil)
	require.Error(t, err)
}

func TestDetermineTotalSize_FallsBackToSeekOnRegularFile(t *testing.T) {
	path := newTestDeviceFile(t, 5<<20)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	size := determineTotalSize(f, 999)
	require.Equal(t, uint64(5<<20), size)
}

// TestWritePass_TerminatesOnDeviceFilled exercises the real termination
// path: the loop writes full fixed-size chunks unconditionally until the
// device reports itself full, rather than stopping at a precomputed byte
// count.
func TestWritePass_TerminatesOnDeviceFilled(t *testing.T) {
	var fills int
	orig := deviceOpener
	deviceOpener = newCappedTestOpener(func() { fills++ })
	t.Cleanup(func() { deviceOpener = orig })

	path := newTestDeviceFile(t, patternBufferSize*3)
	err := writePass(context.Background(), path, patternZeros, patternBufferSize*3, 0, 1, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, fills)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, int(patternBufferSize*3), len(data))
}

// TestWritePass_PropagatesNonDeviceFilledError confirms a genuine I/O
// failure, distinct from the device simply running out of room, surfaces
// as an error instead of being swallowed as a successful termination.
func TestWritePass_PropagatesNonDeviceFilledError(t *testing.T) {
	orig := deviceOpener
	deviceOpener = func(string, uint64) (devicePassWriter, uint64, error) {
		return &failingDeviceWriter{failAfter: patternBufferSize / 2}, patternBufferSize * 4, nil
	}
	t.Cleanup(func() { deviceOpener = orig })

	err := writePass(context.Background(), "unused", patternZeros, patternBufferSize*4, 0, 1, nil, nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, errSimulatedDeviceFull)
}
