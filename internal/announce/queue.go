package announce

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/constants"
)

var (
	// ErrQueueFull is returned when the pending announcements exceed the buffer.
	ErrQueueFull = errors.New("announcement queue is full")
	// ErrQueueClosed is returned after Close.
	ErrQueueClosed = errors.New("announcement queue is closed")
)

// Queue delivers announcements one at a time on its own goroutine.
// Announce only enqueues, so pollers and request handlers never wait for
// speech, and the delivery runs under the queue's context rather than the
// caller's.
type Queue struct {
	next   Announcer
	logger *slog.Logger
	items  chan appliance.Recognition

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue starts a queue in front of next holding up to size pending
// announcements. A non-positive size uses the default.
func NewQueue(next Announcer, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = constants.AnnounceQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		next:   next,
		logger: logger,
		items:  make(chan appliance.Recognition, size),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.ctx.Done():
			return
		case rec := <-q.items:
			if err := q.next.Announce(q.ctx, rec); err != nil && q.ctx.Err() == nil {
				q.logger.Warn("announcement failed", "identity", rec.Identity, "error", err)
			}
		}
	}
}

// Announce enqueues rec without waiting for delivery.
func (q *Queue) Announce(_ context.Context, rec appliance.Recognition) error {
	if q.ctx.Err() != nil {
		return ErrQueueClosed
	}
	select {
	case q.items <- rec:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the worker, interrupting an announcement in progress, and
// drops whatever is still pending.
func (q *Queue) Close() {
	q.cancel()
	<-q.done
}
