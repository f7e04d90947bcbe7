// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"sync"
	"time"

	"github.com/stratastor/diskwiper/internal/common"
	"github.com/stratastor/logger"
)

// EventBus coordinates event buffering and in-process fan-out to
// subscribers (the CLI progress renderer of `wipe start --foreground`).
// There is no remote control plane in this service, so delivery
// never leaves the process.
type EventBus struct {
	buffer *EventBuffer
	config *EventConfig
	logger logger.Logger

	eventChan chan *Event
	stopChan  chan struct{}

	subMu     sync.RWMutex
	subs      map[int]chan *Event
	nextSubID int

	wg         sync.WaitGroup
	mu         sync.RWMutex
	isShutdown bool
}

// NewEventBus creates a new event bus.
func NewEventBus(cfg *EventConfig, l logger.Logger) *EventBus {
	return &EventBus{
		buffer:    NewEventBuffer(cfg, l),
		config:    cfg,
		logger:    l,
		eventChan: make(chan *Event, 1000),
		stopChan:  make(chan struct{}),
		subs:      make(map[int]chan *Event),
	}
}

// Start starts the event bus processing loop.
func (eb *EventBus) Start(ctx context.Context) error {
	eb.mu.Lock()
	if eb.isShutdown {
		eb.mu.Unlock()
		return nil
	}
	eb.mu.Unlock()

	eb.wg.Add(1)
	go eb.processEvents(ctx)

	eb.logger.Info("event bus started",
		"buffer_size", eb.config.BufferSize,
		"flush_threshold", eb.config.FlushThreshold)

	return nil
}

// Subscribe registers a new subscriber channel and returns its ID plus a
// receive-only view. Call Unsubscribe with the returned ID when done.
func (eb *EventBus) Subscribe(bufSize int) (int, <-chan *Event) {
	eb.subMu.Lock()
	defer eb.subMu.Unlock()

	eb.nextSubID++
	id := eb.nextSubID
	ch := make(chan *Event, bufSize)
	eb.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (eb *EventBus) Unsubscribe(id int) {
	eb.subMu.Lock()
	defer eb.subMu.Unlock()

	if ch, ok := eb.subs[id]; ok {
		close(ch)
		delete(eb.subs, id)
	}
}

// Emit emits an event (non-blocking).
func (eb *EventBus) Emit(eventType string, level EventLevel, category EventCategory, source string, payload []byte, metadata map[string]string) {
	eb.mu.RLock()
	if eb.isShutdown {
		eb.mu.RUnlock()
		return
	}
	eb.mu.RUnlock()

	event := &Event{
		ID:        common.UUID7(),
		Type:      eventType,
		Level:     level,
		Category:  category,
		Source:    source,
		Timestamp: time.Now(),
		Payload:   payload,
		Metadata:  metadata,
	}

	select {
	case eb.eventChan <- event:
	default:
		eb.logger.Warn("event channel full, dropping event", "event_type", eventType, "event_id", event.ID)
	}
}

func (eb *EventBus) processEvents(ctx context.Context) {
	defer eb.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-eb.stopChan:
			return
		case event := <-eb.eventChan:
			if err := eb.buffer.Add(event); err != nil {
				eb.logger.Error("failed to add event to buffer", "event_id", event.ID, "error", err)
			}
			eb.publish(event)
		}
	}
}

// publish fans an event out to every live subscriber, non-blocking — a
// slow or stalled subscriber drops events rather than backing up the bus.
func (eb *EventBus) publish(event *Event) {
	eb.subMu.RLock()
	defer eb.subMu.RUnlock()

	for id, ch := range eb.subs {
		select {
		case ch <- event:
		default:
			eb.logger.Warn("subscriber channel full, dropping event", "subscriber", id, "event_id", event.ID)
		}
	}
}

// Shutdown gracefully shuts down the event bus, flushing any buffered
// events to disk and closing all subscriber channels.
func (eb *EventBus) Shutdown(ctx context.Context) error {
	eb.mu.Lock()
	if eb.isShutdown {
		eb.mu.Unlock()
		return nil
	}
	eb.isShutdown = true
	eb.mu.Unlock()

	eb.logger.Info("shutting down event bus")
	close(eb.stopChan)

	// Drain remaining queued events into the buffer before flushing.
	for {
		select {
		case event := <-eb.eventChan:
			if err := eb.buffer.Add(event); err != nil {
				eb.logger.Error("failed to add event to buffer during shutdown", "event_id", event.ID, "error", err)
			}
		default:
			goto drained
		}
	}

drained:
	if err := eb.buffer.Flush(); err != nil {
		eb.logger.Error("failed to flush remaining events to disk", "error", err)
	}

	eb.subMu.Lock()
	for id, ch := range eb.subs {
		close(ch)
		delete(eb.subs, id)
	}
	eb.subMu.Unlock()

	done := make(chan struct{})
	go func() {
		eb.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		eb.logger.Info("event bus shutdown complete")
	case <-ctx.Done():
		eb.logger.Warn("event bus shutdown timed out")
		return ctx.Err()
	}

	return nil
}

// GetStats returns current event bus statistics.
func (eb *EventBus) GetStats() map[string]interface{} {
	eb.subMu.RLock()
	subCount := len(eb.subs)
	eb.subMu.RUnlock()

	return map[string]interface{}{
		"buffer_size":     eb.buffer.Size(),
		"max_buffer_size": eb.config.BufferSize,
		"flush_threshold": eb.config.FlushThreshold,
		"pending_events":  len(eb.eventChan),
		"max_pending":     cap(eb.eventChan),
		"subscribers":     subCount,
		"is_shutdown":     eb.isShutdown,
	}
}
