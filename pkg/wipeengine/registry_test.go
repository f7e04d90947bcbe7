// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_TryStartClaimsExclusively(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.TryStart("/dev/sda", "log-1"))
	require.False(t, r.TryStart("/dev/sda", "log-2"))
	require.True(t, r.Has("/dev/sda"))
	require.False(t, r.Has("/dev/sdb"))
}

func TestRegistry_RemoveAllowsReclaim(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.TryStart("/dev/sda", "log-1"))
	r.Remove("/dev/sda")
	require.False(t, r.Has("/dev/sda"))
	require.True(t, r.TryStart("/dev/sda", "log-2"))
}

func TestRegistry_SetStatusAndProgressReflectInSnapshot(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.TryStart("/dev/sda", "log-1"))
	r.SetStatus("/dev/sda", "running")
	r.SetProgress("/dev/sda", 42.5)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, "/dev/sda", snap[0].DevicePath)
	require.Equal(t, "log-1", snap[0].LogID)
	require.Equal(t, "running", snap[0].Status)
	require.Equal(t, 42.5, snap[0].Progress)
}
