// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"github.com/google/uuid"
	"github.com/stratastor/diskwiper/config"
	"github.com/stratastor/logger"
)

// Global logger, initialized once at package load. Subsystem constructors
// take their own tagged logger; this one backs package-level helpers only.
var Log logger.Logger

func init() {
	var err error
	Log, err = logger.NewTag(config.NewLoggerConfig(config.GetConfig()), "global")
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
}

// UUID7 generates a new UUID using V7, falling back to V4 if V7 errors.
func UUID7() string {
	if u, err := uuid.NewV7(); err == nil {
		return u.String()
	}
	return uuid.New().String()
}
