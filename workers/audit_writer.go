package workers

import (
	"context"
	"sync"
	"time"

	"hub/models"
	"hub/store"

	"github.com/rs/zerolog"
)

const (
	auditWriteTimeout   = 5 * time.Second
	auditEnqueueTimeout = 5 * time.Second
)

// AuditWriter persists audit entries from a buffered queue. Failures are
// logged and never reach the caller.
type AuditWriter struct {
	store store.Store
	log   zerolog.Logger

	// how long Log waits for room in a full queue before dropping the entry
	enqueueTimeout time.Duration

	mu     sync.RWMutex
	queue  chan models.AuditEntry
	closed bool
	done   chan struct{}
}

// StartAuditWriter starts the background loop that drains the queue.
func StartAuditWriter(st store.Store, buffer int, log zerolog.Logger) *AuditWriter {
	if buffer <= 0 {
		buffer = 1
	}
	w := &AuditWriter{
		store:          st,
		log:            log,
		enqueueTimeout: auditEnqueueTimeout,
		queue:          make(chan models.AuditEntry, buffer),
		done:           make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *AuditWriter) loop() {
	defer close(w.done)
	for entry := range w.queue {
		w.write(entry)
	}
}

// Log enqueues entry, waiting for room when the queue is full so entries from
// one goroutine keep their order. An entry that finds no room within the
// enqueue timeout is logged and dropped. Once the writer is closed, entries are
// written in the caller's goroutine after the queue has drained.
func (w *AuditWriter) Log(_ context.Context, entry models.AuditEntry) {
	w.mu.RLock()
	if !w.closed {
		select {
		case w.queue <- entry:
			w.mu.RUnlock()
			return
		default:
		}
		timer := time.NewTimer(w.enqueueTimeout)
		defer timer.Stop()
		select {
		case w.queue <- entry:
			w.mu.RUnlock()
		case <-timer.C:
			w.mu.RUnlock()
			w.log.Error().
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("actor", entry.ActorID).
				Msg("audit queue full, entry dropped")
		}
		return
	}
	w.mu.RUnlock()

	select {
	case <-w.done:
	case <-time.After(w.enqueueTimeout):
	}
	w.write(entry)
}

func (w *AuditWriter) write(entry models.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if _, err := w.store.Create(ctx, models.COLLECTION_AUDIT_LOGS, entry.Record()); err != nil {
		w.log.Error().Err(err).
			Str("action", entry.Action).
			Str("resource", entry.Resource).
			Str("resource_id", entry.ResourceID).
			Msg("audit write failed")
	}
}

// Close stops accepting queued entries and waits for the queue to drain.
func (w *AuditWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
