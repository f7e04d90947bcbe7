// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package wipeengine

import (
	"errors"
	"os"
	"syscall"
)

// rawBlockSize has no portable ioctl equivalent outside Linux in this
// codebase; callers fall back to Seek-to-end, which is sufficient on
// Windows physical drives and Darwin device nodes.
func rawBlockSize(f *os.File) (uint64, bool) {
	return 0, false
}

// isDeviceFilled reports whether err is the platform's "no space left on
// device" condition, identified by errno where the standard library
// exposes one (Darwin), falling back to the message whitelist elsewhere
// (Windows, where disk-full surfaces as a Win32 error string).
func isDeviceFilled(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ENOSPC
	}
	return isDeviceFilledMessage(err)
}
