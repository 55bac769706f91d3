// Package events provides the lifecycle event channel between the transfer
// manager and its consumers (status widget, caches, notifications).
// Subscribers receive events over buffered channels; there is no replay of
// past events to late subscribers — combine Subscribe with a pull-based
// status query if current state is needed on startup.
package events

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
)

// ErrCancelled marks a batch-level UploadErrorEvent as a cancellation
// rather than a failure. Match with errors.Is.
var ErrCancelled = errors.New("upload cancelled")

// EventType defines the types of events that can be emitted
type EventType string

const (
	// Upload lifecycle events published by the transfer manager
	EventUploadStart    EventType = "upload_start"    // Batch accepted, transfer about to begin
	EventUploadProgress EventType = "upload_progress" // One file advanced (sequential strategy only)
	EventUploadComplete EventType = "upload_complete" // Batch reached a terminal success/partial state
	EventUploadError    EventType = "upload_error"    // Per-file failure or batch-level failure/cancellation

	// EventCacheInvalidated signals that a cached listing is stale and
	// consumers should refetch. Published once per drain of the active
	// batch set, never per file.
	EventCacheInvalidated EventType = "cache_invalidated"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// FileResult records the outcome of one file within a batch.
type FileResult struct {
	Filename string
	Size     int64
	OK       bool
	Err      error
}

// UploadStartEvent announces a new batch. Emitted for every strategy so
// pollers know to start watching the spool queue.
type UploadStartEvent struct {
	BaseEvent
	BatchID  string
	Strategy string // "spool" or "sequential"
	Total    int    // file count
}

// UploadProgressEvent reports one file advancing on the sequential path.
// Current is 1-based; events arrive strictly in input order.
type UploadProgressEvent struct {
	BaseEvent
	BatchID  string
	Current  int
	Total    int
	Filename string
	Percent  float64 // 0.0 to 100.0, file-count based
}

// UploadCompleteEvent carries the per-file results of a finished batch.
// A batch with partial failures still completes; Results enumerates both
// successes and failures.
type UploadCompleteEvent struct {
	BaseEvent
	BatchID string
	Total   int
	Results []FileResult
}

// UploadErrorEvent reports a per-file failure (Filename set, batch
// continues) or a batch-level failure/cancellation (Filename empty).
type UploadErrorEvent struct {
	BaseEvent
	BatchID  string
	Filename string
	Err      error
}

// CacheInvalidatedEvent names a stale listing cache key.
type CacheInvalidatedEvent struct {
	BaseEvent
	Key string
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Delivery is non-blocking:
// a subscriber with a full buffer misses the event (counted, not fatal).
// The subscriber list is read under lock, so a listener that
// (un)subscribes during notification is neither skipped nor invoked twice.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	// Specific type subscribers, in registration order
	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	// All-events subscribers
	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// Unsubscribe removes a subscription channel from a specific event type
// This prevents memory leaks from abandoned subscriptions
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
// Use this when cleaning up a subscriber that subscribed to multiple event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// PublishUploadStart is a convenience method for publishing batch-start events.
func (eb *EventBus) PublishUploadStart(batchID, strategy string, total int) {
	eb.Publish(&UploadStartEvent{
		BaseEvent: BaseEvent{EventType: EventUploadStart, Time: time.Now()},
		BatchID:   batchID,
		Strategy:  strategy,
		Total:     total,
	})
}

// PublishUploadProgress is a convenience method for publishing per-file progress.
func (eb *EventBus) PublishUploadProgress(batchID string, current, total int, filename string) {
	percent := 0.0
	if total > 0 {
		percent = float64(current) / float64(total) * 100.0
	}
	eb.Publish(&UploadProgressEvent{
		BaseEvent: BaseEvent{EventType: EventUploadProgress, Time: time.Now()},
		BatchID:   batchID,
		Current:   current,
		Total:     total,
		Filename:  filename,
		Percent:   percent,
	})
}

// PublishUploadError is a convenience method for publishing failure events.
func (eb *EventBus) PublishUploadError(batchID, filename string, err error) {
	eb.Publish(&UploadErrorEvent{
		BaseEvent: BaseEvent{EventType: EventUploadError, Time: time.Now()},
		BatchID:   batchID,
		Filename:  filename,
		Err:       err,
	})
}

// PublishCacheInvalidated is a convenience method for publishing cache invalidations.
func (eb *EventBus) PublishCacheInvalidated(key string) {
	eb.Publish(&CacheInvalidatedEvent{
		BaseEvent: BaseEvent{EventType: EventCacheInvalidated, Time: time.Now()},
		Key:       key,
	})
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
