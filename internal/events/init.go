// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"sync"

	"github.com/stratastor/logger"
)

var (
	globalMu       sync.Mutex
	initialized    bool
	GlobalEventBus *EventBus
)

// Initialize starts the process-wide event bus once. Safe to call
// multiple times; only the first call takes effect.
func Initialize(ctx context.Context, l logger.Logger) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if initialized {
		return nil
	}

	GlobalEventBus = NewEventBus(GetEventConfig(), l)
	if err := GlobalEventBus.Start(ctx); err != nil {
		return err
	}

	initialized = true
	l.Info("event system initialized")
	return nil
}
