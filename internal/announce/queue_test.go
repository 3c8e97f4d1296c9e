package announce

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kozaktomas/face-console/internal/appliance"
)

// blockingAnnouncer reports each started announcement and then waits for
// release (or cancellation) before returning.
type blockingAnnouncer struct {
	started chan string
	release chan struct{}
}

func newBlockingAnnouncer() *blockingAnnouncer {
	return &blockingAnnouncer{started: make(chan string, 16), release: make(chan struct{})}
}

func (b *blockingAnnouncer) Announce(ctx context.Context, rec appliance.Recognition) error {
	b.started <- rec.Identity
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitStarted(t *testing.T, b *blockingAnnouncer) string {
	t.Helper()
	select {
	case id := <-b.started:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for announcement to start")
		return ""
	}
}

func TestQueue_AnnounceDoesNotWait(t *testing.T) {
	slow := newBlockingAnnouncer()
	q := NewQueue(slow, 4, quietLogger())
	defer q.Close()

	done := make(chan error, 1)
	go func() {
		done <- q.Announce(context.Background(), appliance.Recognition{Identity: "alice"})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Announce failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Announce blocked on delivery")
	}

	if id := waitStarted(t, slow); id != "alice" {
		t.Errorf("expected 'alice' to be delivered, got '%s'", id)
	}
	close(slow.release)
}

func TestQueue_DeliversInOrder(t *testing.T) {
	slow := newBlockingAnnouncer()
	q := NewQueue(slow, 4, quietLogger())
	defer q.Close()

	for _, id := range []string{"alice", "bob", "carol"} {
		if err := q.Announce(context.Background(), appliance.Recognition{Identity: id}); err != nil {
			t.Fatalf("Announce(%s) failed: %v", id, err)
		}
	}
	close(slow.release)

	for _, expected := range []string{"alice", "bob", "carol"} {
		if id := waitStarted(t, slow); id != expected {
			t.Errorf("expected '%s', got '%s'", expected, id)
		}
	}
}

func TestQueue_CallerContextDoesNotCancelDelivery(t *testing.T) {
	slow := newBlockingAnnouncer()
	q := NewQueue(slow, 4, quietLogger())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	if err := q.Announce(ctx, appliance.Recognition{Identity: "alice"}); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}
	cancel()

	waitStarted(t, slow)
	if err := q.ctx.Err(); err != nil {
		t.Errorf("expected queue context to stay live after caller cancel, got %v", err)
	}
	close(slow.release)
}

func TestQueue_Full(t *testing.T) {
	slow := newBlockingAnnouncer()
	q := NewQueue(slow, 1, quietLogger())
	defer q.Close()

	// First item is taken by the worker, second fills the buffer.
	if err := q.Announce(context.Background(), appliance.Recognition{Identity: "a"}); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}
	waitStarted(t, slow)
	if err := q.Announce(context.Background(), appliance.Recognition{Identity: "b"}); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}

	err := q.Announce(context.Background(), appliance.Recognition{Identity: "c"})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	close(slow.release)
}

func TestQueue_Close(t *testing.T) {
	slow := newBlockingAnnouncer()
	q := NewQueue(slow, 4, quietLogger())

	if err := q.Announce(context.Background(), appliance.Recognition{Identity: "alice"}); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}
	waitStarted(t, slow)

	closed := make(chan struct{})
	go func() {
		q.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not interrupt the announcement in progress")
	}

	err := q.Announce(context.Background(), appliance.Recognition{Identity: "bob"})
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}
