// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package wipeengine

import (
	"errors"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// rawBlockSize queries BLKGETSIZE64 directly, the authoritative byte size
// of a block device — seeking to end works for a regular file but can
// under-report on some block-special files where the kernel doesn't
// maintain a conventional EOF.
func rawBlockSize(f *os.File) (uint64, bool) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, false
	}
	return size, true
}

// isDeviceFilled reports whether err represents the platform's "no space
// left on device" condition by errno identity — the normal, expected
// termination of a pattern-write pass, not an I/O failure. A localized
// message whitelist backs this up on platforms/paths where the errno
// doesn't survive wrapping (see isDeviceFilledMessage).
func isDeviceFilled(err error) bool {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno == unix.ENOSPC
	}
	return isDeviceFilledMessage(err)
}
