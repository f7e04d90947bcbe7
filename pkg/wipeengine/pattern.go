// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"context"
	"crypto/rand"
	"io"
	"os"
	"strconv"

	"github.com/stratastor/diskwiper/pkg/errors"
)

const patternBufferSize = 1 << 20 // 1 MiB

// patternKind is a closed tagged variant for the byte pattern a single
// write pass uses — preferred over a shared "pattern executor" trait, per
// the redesign note against polymorphic dispatch.
type patternKind int

const (
	patternZeros patternKind = iota
	patternOnes
	patternRandom
)

// progressFunc is invoked with the overall (0-100) progress after the
// integer percentage changes; it must not block the caller for long, as
// it is invoked on the worker's hot path between writes.
type progressFunc func(percent float64)

// determineTotalSize resolves the device's writable size: a raw ioctl
// query first (authoritative on Linux block devices), then seek-to-end,
// then the size recorded at inventory time.
func determineTotalSize(f *os.File, fallback uint64) uint64 {
	if sz, ok := rawBlockSize(f); ok && sz > 0 {
		return sz
	}
	if off, err := f.Seek(0, 2); err == nil && off > 0 {
		return uint64(off)
	}
	return fallback
}

// devicePassWriter is the minimal write surface a pattern-write pass needs
// once its target is open and sized. *os.File satisfies it in production;
// tests substitute a capacity-bounded fake so device-filled termination
// (normally only reachable via a real block device) can be exercised
// deterministically.
type devicePassWriter interface {
	io.Writer
	Close() error
}

// deviceOpener opens devicePath for a pattern-write pass and resolves its
// writable size. Overridden in tests; production callers always get
// openRealDevice.
var deviceOpener = openRealDevice

// openRealDevice opens devicePath for writing and seeks to its start,
// after determineTotalSize has possibly seeked to end-of-file to measure
// it.
func openRealDevice(devicePath string, fallbackSize uint64) (devicePassWriter, uint64, error) {
	f, err := os.OpenFile(devicePath, os.O_WRONLY, 0)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.WipeWriteError).WithMetadata("device_path", devicePath)
	}

	totalSize := determineTotalSize(f, fallbackSize)
	if totalSize > 0 {
		if _, err := f.Seek(0, 0); err != nil {
			f.Close()
			return nil, 0, errors.Wrap(err, errors.WipeWriteError).WithMetadata("device_path", devicePath)
		}
	}

	return f, totalSize, nil
}

// writePass performs one full traversal of devicePath writing the given
// pattern, reporting progress for passIndex of totalPasses. A
// "device-filled" return (end of device reached) is not an error: it is
// the expected termination of a pass.
func writePass(ctx context.Context, devicePath string, pattern patternKind, fallbackSize uint64, passIndex, totalPasses int, onProgress progressFunc, onBytes func(uint64)) error {
	w, totalSize, err := deviceOpener(devicePath, fallbackSize)
	if err != nil {
		return err
	}
	defer w.Close()

	if totalSize == 0 {
		// §8 boundary behavior: a zero-size device completes with no
		// iterations and no progress reports; the worker records 100%
		// when it marks the wipe completed.
		return nil
	}

	buf := make([]byte, patternBufferSize)
	switch pattern {
	case patternZeros:
		// buf is already zero-valued.
	case patternOnes:
		for i := range buf {
			buf[i] = 0xFF
		}
	case patternRandom:
		// filled fresh per iteration below.
	}

	// totalSize feeds progress math only. The loop itself writes full
	// fixed-size chunks unconditionally and keeps going until the OS
	// reports the device full — device-filled is the expected, exercised
	// termination of a pass, not a fallback for when the size estimate
	// above turns out to be wrong.
	var written uint64
	lastReportedPercent := -1

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk := buf
		if pattern == patternRandom {
			if _, err := rand.Read(chunk); err != nil {
				return errors.Wrap(err, errors.WipeWriteError).WithMetadata("device_path", devicePath)
			}
		}

		n, werr := w.Write(chunk)
		written += uint64(n)
		if n > 0 && onBytes != nil {
			onBytes(uint64(n))
		}

		if werr != nil {
			if isDeviceFilled(werr) {
				break
			}
			return errors.Wrap(werr, errors.WipeWriteError).
				WithMetadata("device_path", devicePath).
				WithMetadata("bytes_written", strconv.FormatUint(written, 10))
		}

		overall := ((float64(passIndex) + float64(written)/float64(totalSize)) / float64(totalPasses)) * 100
		if overall > 99.9 {
			overall = 99.9
		}
		if pct := int(overall); pct != lastReportedPercent {
			lastReportedPercent = pct
			if onProgress != nil {
				onProgress(overall)
			}
		}
	}

	return nil
}
