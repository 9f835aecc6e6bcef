// Package audit provides a fire-and-forget activity logger. Records are
// queued onto a buffered channel and written by a background worker; a full
// queue or a failing database write never propagates to the request path.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/shoptally/shoptally/internal/auth/domain"
	"github.com/shoptally/shoptally/pkg/idx"
)

// DefaultQueueSize bounds the in-flight record queue.
const DefaultQueueSize = 256

// Sink is the narrow persistence dependency, satisfied by
// store.ActivityLogs.
type Sink interface {
	Insert(ctx context.Context, entry domain.ActivityLog) error
}

// Entry is what handlers record. The recorder assigns the ID and timestamp
// and masks metadata before persisting.
type Entry struct {
	UserID    *string
	Action    string
	Module    string
	IP        string
	UserAgent string
	Metadata  map[string]any
}

// Recorder is the async activity logger. Create with NewRecorder, Start it
// once, and Stop it during shutdown to drain the queue.
type Recorder struct {
	sink   Sink
	logger *slog.Logger

	queue  chan domain.ActivityLog
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRecorder creates a Recorder. queueSize <= 0 means DefaultQueueSize.
func NewRecorder(sink Sink, logger *slog.Logger, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Recorder{
		sink:   sink,
		logger: logger,
		queue:  make(chan domain.ActivityLog, queueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the background writer.
func (r *Recorder) Start() {
	go r.run()
	r.logger.Info("audit recorder started", "queue_size", cap(r.queue))
}

// Stop drains queued records and shuts the writer down.
func (r *Recorder) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.logger.Info("audit recorder stopped")
}

// Record queues an entry without blocking. When the queue is full the entry
// is dropped with a warning; audit is best-effort by contract and must never
// slow down or fail a request.
func (r *Recorder) Record(e Entry) {
	rec := domain.ActivityLog{
		ID:        idx.New().String(),
		UserID:    e.UserID,
		Action:    e.Action,
		Module:    e.Module,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		Metadata:  MaskMetadata(e.Metadata),
		CreatedAt: time.Now().UTC(),
	}

	select {
	case r.queue <- rec:
	default:
		r.logger.Warn("audit queue full, dropping record", "action", e.Action)
	}
}

func (r *Recorder) run() {
	defer close(r.doneCh)

	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		case <-r.stopCh:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case rec := <-r.queue:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

// write persists one record. Failures are logged and swallowed.
func (r *Recorder) write(rec domain.ActivityLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.sink.Insert(ctx, rec); err != nil {
		r.logger.Error("failed to write activity log", "action", rec.Action, "error", err)
	}
}
