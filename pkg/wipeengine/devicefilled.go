// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import "strings"

// deviceFilledMessages is the localized-message whitelist backing
// isDeviceFilled when errno identity doesn't survive wrapping (a Win32
// error string, or a driver that returns a bare *os.PathError without a
// preserved syscall.Errno).
var deviceFilledMessages = []string{
	"no space left on device",
	"disk full",
	"there is not enough space on the disk", // Windows ERROR_DISK_FULL
}

func isDeviceFilledMessage(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range deviceFilledMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
