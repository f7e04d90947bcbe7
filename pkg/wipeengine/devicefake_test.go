// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"errors"
	"os"
	"testing"
)

// errSimulatedDeviceFull mimics the OS's "no space left on device" message
// so isDeviceFilledMessage's portable whitelist classifies it exactly as
// it would a real ENOSPC.
var errSimulatedDeviceFull = errors.New("no space left on device")

// errSimulatedIOFailure is a write error deliberately outside the
// device-filled whitelist, standing in for a genuine mid-pass I/O fault.
var errSimulatedIOFailure = errors.New("simulated I/O failure: input/output error")

// cappedDeviceFile wraps a real *os.File but refuses writes past capacity,
// returning errSimulatedDeviceFull instead of silently letting the
// underlying regular file grow past its declared size the way a plain
// os.File write would. This is what lets writePass's real device-filled
// termination path run against a temp file in tests.
type cappedDeviceFile struct {
	f        *os.File
	capacity uint64
	written  uint64
	onFill   func()
}

func (c *cappedDeviceFile) Write(p []byte) (int, error) {
	remaining := c.capacity - c.written
	if remaining == 0 {
		if c.onFill != nil {
			c.onFill()
		}
		return 0, errSimulatedDeviceFull
	}

	n := len(p)
	if uint64(n) > remaining {
		n = int(remaining)
	}

	written, err := c.f.Write(p[:n])
	c.written += uint64(written)
	if err != nil {
		return written, err
	}
	if uint64(written) < uint64(len(p)) {
		if c.onFill != nil {
			c.onFill()
		}
		return written, errSimulatedDeviceFull
	}
	return written, nil
}

func (c *cappedDeviceFile) Close() error {
	return c.f.Close()
}

// newCappedTestOpener mirrors openRealDevice's sizing logic exactly, but
// hands back a cappedDeviceFile so the write loop actually terminates via
// isDeviceFilled instead of growing the backing temp file without bound.
// onFill, if non-nil, is invoked once per device-filled termination
// observed — across every pass, since the opener is invoked fresh per
// pass.
func newCappedTestOpener(onFill func()) func(string, uint64) (devicePassWriter, uint64, error) {
	return func(devicePath string, fallback uint64) (devicePassWriter, uint64, error) {
		f, err := os.OpenFile(devicePath, os.O_WRONLY, 0)
		if err != nil {
			return nil, 0, err
		}

		totalSize := determineTotalSize(f, fallback)
		if totalSize > 0 {
			if _, err := f.Seek(0, 0); err != nil {
				f.Close()
				return nil, 0, err
			}
		}

		return &cappedDeviceFile{f: f, capacity: totalSize, onFill: onFill}, totalSize, nil
	}
}

// withCappedTestDevice swaps deviceOpener for the duration of the test so
// writePass runs against a capacity-bounded wrapper around the real temp
// file instead of an unbounded one.
func withCappedTestDevice(t *testing.T) {
	t.Helper()
	orig := deviceOpener
	deviceOpener = newCappedTestOpener(nil)
	t.Cleanup(func() { deviceOpener = orig })
}

// failingDeviceWriter accepts writes up to failAfter bytes, then returns a
// non-device-filled error — simulating a genuine mid-pass I/O fault
// distinct from the device simply running out of room.
type failingDeviceWriter struct {
	failAfter uint64
	written   uint64
}

func (w *failingDeviceWriter) Write(p []byte) (int, error) {
	if w.written >= w.failAfter {
		return 0, errSimulatedIOFailure
	}

	n := len(p)
	allowed := w.failAfter - w.written
	if uint64(n) > allowed {
		n = int(allowed)
	}
	w.written += uint64(n)
	if uint64(n) < uint64(len(p)) {
		return n, errSimulatedIOFailure
	}
	return n, nil
}

func (w *failingDeviceWriter) Close() error { return nil }
