// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package persistence

import (
	"context"
	"os"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{LogLevel: "debug"})
	require.NoError(t, err)
	return l
}

func TestJSONFileStore_PersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewJSONFileStore(testLogger(t), dir)
	require.NoError(t, err)

	require.NoError(t, store.InsertWipeLog(ctx, &WipeLogRecord{
		ID: "log-1", DevicePath: "/dev/sdb", Method: MethodZeros, Passes: 1, Status: StatusInProgress,
	}))

	reloaded, err := NewJSONFileStore(testLogger(t), dir)
	require.NoError(t, err)

	rec, ok, err := reloaded.GetWipeLog(ctx, "log-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, rec.Status)
}

func TestJSONFileStore_CorruptedRecordSkippedNotWholeStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir+"/"+wipeLogsDirName, 0755))
	require.NoError(t, os.WriteFile(dir+"/"+wipeLogsDirName+"/bad.json", []byte("{not valid json"), 0644))

	store, err := NewJSONFileStore(testLogger(t), dir)
	require.NoError(t, err)

	list, err := store.ListWipeLogs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = os.Stat(dir + "/" + wipeLogsDirName + "/bad.json.corrupted")
	assert.NoError(t, err, "corrupted record should be backed up rather than discarded")
}

func TestJSONFileStore_WipeLogsShardedOnePerRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewJSONFileStore(testLogger(t), dir)
	require.NoError(t, err)

	require.NoError(t, store.InsertWipeLog(ctx, &WipeLogRecord{
		ID: "log-a", DevicePath: "/dev/sda", Method: MethodZeros, Passes: 1, Status: StatusInProgress,
	}))
	require.NoError(t, store.InsertWipeLog(ctx, &WipeLogRecord{
		ID: "log-b", DevicePath: "/dev/sdb", Method: MethodZeros, Passes: 1, Status: StatusInProgress,
	}))

	_, err = os.Stat(dir + "/" + wipeLogsDirName + "/log-a.json")
	assert.NoError(t, err)
	_, err = os.Stat(dir + "/" + wipeLogsDirName + "/log-b.json")
	assert.NoError(t, err)
}
