// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifySample(t *testing.T) {
	require.Equal(t, sampleAllZeros, classifySample(make([]byte, 200)))

	ones := make([]byte, 200)
	for i := range ones {
		ones[i] = 0xFF
	}
	require.Equal(t, sampleAllOnes, classifySample(ones))

	mixed := make([]byte, 200)
	mixed[50] = 0x42
	require.Equal(t, sampleAppearsRandom, classifySample(mixed))
}

func TestVerifyBSI_TooSmallDeviceErrors(t *testing.T) {
	path := newTestDeviceFile(t, 100)
	_, _, err := verifyBSI(path, 100)
	require.Error(t, err)
}

func TestVerifyBSI_SamplesRandomData(t *testing.T) {
	path := newTestDeviceFile(t, 1<<20)
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	buf := make([]byte, 1<<20)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	_, err = f.WriteAt(buf, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	samples, anyRandom, err := verifyBSI(path, 1<<20)
	require.NoError(t, err)
	require.Len(t, samples, 10)
	require.True(t, anyRandom)
}

func TestVerifyBSI_AllZerosNeverAppearsRandom(t *testing.T) {
	path := newTestDeviceFile(t, 1<<20)
	samples, anyRandom, err := verifyBSI(path, 1<<20)
	require.NoError(t, err)
	require.Len(t, samples, 10)
	require.False(t, anyRandom)
	for _, s := range samples {
		require.Equal(t, sampleAllZeros, s.Outcome)
	}
}
