// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetrics_NilReceiverIsSafeNoOp(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.WipeStarted()
		m.WipeEnded("completed", 1.5)
		m.BytesWritten(1024)
	})
}

func TestMetrics_ExposesCountersThroughHandler(t *testing.T) {
	m := New()
	m.WipeStarted()
	m.BytesWritten(4096)
	m.WipeEnded("completed", 2.0)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "diskwiper_active_wipes")
	require.Contains(t, body, "diskwiper_bytes_written_total 4096")
	require.Contains(t, body, "diskwiper_wipes_completed_total 1")
}
