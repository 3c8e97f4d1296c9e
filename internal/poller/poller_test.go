package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-console/internal/announce"
	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/database"
	"github.com/kozaktomas/face-console/internal/database/mock"
)

// fakeSource returns whatever status/users are currently configured.
type fakeSource struct {
	mu        sync.Mutex
	status    *appliance.SystemStatus
	users     []string
	statusErr error
	usersErr  error
	calls     int
}

func (f *fakeSource) Status(ctx context.Context) (*appliance.SystemStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	s := *f.status
	return &s, nil
}

func (f *fakeSource) ListUsers(ctx context.Context) (*appliance.UserList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	list := &appliance.UserList{Shape: appliance.UserListArray}
	for _, name := range f.users {
		list.Users = append(list.Users, appliance.EnrolledUser{Name: name})
	}
	return list, nil
}

func (f *fakeSource) set(fn func(f *fakeSource)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeSource) recognize(identity, timestamp string) {
	f.set(func(f *fakeSource) {
		f.status.LastRecognition = &appliance.Recognition{Identity: identity, Confidence: 0.9, Timestamp: timestamp}
	})
}

type recordingAnnouncer struct {
	mu         sync.Mutex
	identities []string
	err        error
}

func (a *recordingAnnouncer) Announce(ctx context.Context, rec appliance.Recognition) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identities = append(a.identities, rec.Identity)
	return a.err
}

func (a *recordingAnnouncer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.identities)
}

// manualTimers captures scheduled marker resets so tests can fire them.
type manualTimers struct {
	mu    sync.Mutex
	funcs []func()
}

func (m *manualTimers) afterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append(m.funcs, f)
}

func (m *manualTimers) fire(i int) {
	m.mu.Lock()
	f := m.funcs[i]
	m.mu.Unlock()
	f()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPoller(src *fakeSource, announcer *recordingAnnouncer, journal *mock.MockRecognitionWriter) (*Poller, *manualTimers) {
	opts := Options{Logger: discardLogger()}
	if announcer != nil {
		opts.Announcer = announcer
	}
	if journal != nil {
		opts.Journal = journal
	}
	p := New(src, opts)
	timers := &manualTimers{}
	p.afterFunc = timers.afterFunc
	return p, timers
}

func TestRefresh_AppliesSnapshot(t *testing.T) {
	src := &fakeSource{
		status: &appliance.SystemStatus{CameraActive: true, RecognitionActive: true},
		users:  []string{"alice", "bob"},
	}
	p, _ := newTestPoller(src, nil, nil)

	if p.Snapshot().Valid() {
		t.Fatal("expected no snapshot before first tick")
	}

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	snap := p.Snapshot()
	if !snap.Valid() {
		t.Fatal("expected valid snapshot")
	}
	if !snap.Status.CameraActive {
		t.Error("expected camera active")
	}
	if len(snap.Users) != 2 || snap.Users[0] != "alice" {
		t.Errorf("expected [alice bob], got %v", snap.Users)
	}
	if snap.Status.EnrolledUserCount != 2 {
		t.Errorf("expected enrolled count 2, got %d", snap.Status.EnrolledUserCount)
	}
	if snap.Tick != 1 {
		t.Errorf("expected tick 1, got %d", snap.Tick)
	}
	if !p.CameraActive() {
		t.Error("expected CameraActive to reflect snapshot")
	}
}

func TestRefresh_OnSnapshot(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	var got []Snapshot
	p := New(src, Options{Logger: discardLogger(), OnSnapshot: func(s Snapshot) { got = append(got, s) }})

	p.Refresh(context.Background())

	if len(got) != 1 || !got[0].Status.CameraActive {
		t.Errorf("expected one snapshot with camera active, got %+v", got)
	}
}

func TestRefresh_FailureKeepsPreviousState(t *testing.T) {
	src := &fakeSource{
		status: &appliance.SystemStatus{CameraActive: true},
		users:  []string{"alice"},
	}
	p, _ := newTestPoller(src, nil, nil)
	ctx := context.Background()

	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	before := p.Snapshot()

	tests := []struct {
		name      string
		statusErr error
		usersErr  error
	}{
		{"status fails", errors.New("connection refused"), nil},
		{"users fails", nil, errors.New("bad gateway")},
		{"both fail", errors.New("timeout"), errors.New("timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src.set(func(f *fakeSource) {
				f.status = &appliance.SystemStatus{CameraActive: false}
				f.users = []string{"someone-else"}
				f.statusErr = tt.statusErr
				f.usersErr = tt.usersErr
			})

			if err := p.Refresh(ctx); err == nil {
				t.Fatal("expected error")
			}

			after := p.Snapshot()
			if after.Tick != before.Tick || !after.Status.CameraActive || after.Users[0] != "alice" {
				t.Errorf("snapshot changed after failed tick: %+v", after)
			}
		})
	}
}

func TestTick_FailureBroadcastsPollError(t *testing.T) {
	src := &fakeSource{statusErr: errors.New("unreachable")}
	p, _ := newTestPoller(src, nil, nil)

	ch := p.AddListener()
	defer p.RemoveListener(ch)

	p.tick(context.Background())

	select {
	case ev := <-ch:
		if ev.Type != EventPollError {
			t.Errorf("expected %s event, got %s", EventPollError, ev.Type)
		}
	default:
		t.Fatal("expected a poll error event")
	}
}

func TestAnnounce_DistinctIdentities(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	announcer := &recordingAnnouncer{}
	journal := mock.NewMockRecognitionWriter()
	p, _ := newTestPoller(src, announcer, journal)
	ctx := context.Background()

	src.recognize("Alice", "2025-10-09T08:00:00Z")
	p.Refresh(ctx)
	src.recognize("Bob", "2025-10-09T08:00:05Z")
	p.Refresh(ctx)

	if announcer.count() != 2 {
		t.Fatalf("expected 2 announcements, got %d", announcer.count())
	}
	if announcer.identities[0] != "Alice" || announcer.identities[1] != "Bob" {
		t.Errorf("expected [Alice Bob], got %v", announcer.identities)
	}

	entries := journal.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(entries))
	}
	if entries[0].Source != database.SourcePoll {
		t.Errorf("expected source poll, got %s", entries[0].Source)
	}
}

func TestAnnounce_SameIdentityWithinReset(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	announcer := &recordingAnnouncer{}
	p, _ := newTestPoller(src, announcer, nil)
	ctx := context.Background()

	src.recognize("Alice", "2025-10-09T08:00:00Z")
	p.Refresh(ctx)
	src.recognize("Alice", "2025-10-09T08:00:02Z")
	p.Refresh(ctx)

	if announcer.count() != 1 {
		t.Errorf("expected 1 announcement, got %d", announcer.count())
	}
	if p.Announced() != "Alice" {
		t.Errorf("expected marker Alice, got %q", p.Announced())
	}
}

func TestAnnounce_MarkerReset(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	announcer := &recordingAnnouncer{}
	p, timers := newTestPoller(src, announcer, nil)
	ctx := context.Background()

	src.recognize("Alice", "2025-10-09T08:00:00Z")
	p.Refresh(ctx)
	timers.fire(0)

	if p.Announced() != "" {
		t.Fatalf("expected marker cleared, got %q", p.Announced())
	}

	// The same recognition event is still reported; it must not repeat.
	p.Refresh(ctx)
	if announcer.count() != 1 {
		t.Fatalf("expected stale recognition not to be re-announced, got %d", announcer.count())
	}

	// A later distinct recognition of the same person is announced again.
	src.recognize("Alice", "2025-10-09T08:01:00Z")
	p.Refresh(ctx)
	if announcer.count() != 2 {
		t.Errorf("expected 2 announcements, got %d", announcer.count())
	}
}

func TestAnnounce_UntimestampedRepeatsAfterReset(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	announcer := &recordingAnnouncer{}
	p, timers := newTestPoller(src, announcer, nil)
	ctx := context.Background()

	src.recognize("Alice", "")
	p.Refresh(ctx)
	p.Refresh(ctx)
	timers.fire(0)
	p.Refresh(ctx)

	if announcer.count() != 2 {
		t.Errorf("expected 2 announcements, got %d", announcer.count())
	}
}

func TestAnnounce_OldTimerKeepsNewerMarker(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	p, timers := newTestPoller(src, &recordingAnnouncer{}, nil)
	ctx := context.Background()

	src.recognize("Alice", "t1")
	p.Refresh(ctx)
	src.recognize("Bob", "t2")
	p.Refresh(ctx)

	timers.fire(0) // Alice's reset
	if p.Announced() != "Bob" {
		t.Errorf("expected marker Bob to survive Alice's reset, got %q", p.Announced())
	}

	timers.fire(1)
	if p.Announced() != "" {
		t.Errorf("expected marker cleared, got %q", p.Announced())
	}
}

func TestAnnounce_EmptyIdentityIgnored(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	announcer := &recordingAnnouncer{}
	p, _ := newTestPoller(src, announcer, nil)

	src.recognize("", "t1")
	p.Refresh(context.Background())

	if announcer.count() != 0 {
		t.Errorf("expected no announcement, got %d", announcer.count())
	}
}

func TestAnnounce_FailuresDoNotFailTick(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	announcer := &recordingAnnouncer{err: errors.New("espeak missing")}
	journal := mock.NewMockRecognitionWriter()
	journal.RecordError = errors.New("db down")
	p, _ := newTestPoller(src, announcer, journal)

	src.recognize("Alice", "t1")
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("expected tick to succeed, got %v", err)
	}
	if p.Announced() != "Alice" {
		t.Errorf("expected marker set despite failures, got %q", p.Announced())
	}
}

func TestRefresh_BroadcastsEvents(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	p, _ := newTestPoller(src, nil, nil)

	ch := p.AddListener()
	defer p.RemoveListener(ch)

	src.recognize("Alice", "t1")
	p.Refresh(context.Background())

	var types []string
	for len(ch) > 0 {
		types = append(types, (<-ch).Type)
	}
	if len(types) != 2 || types[0] != EventSnapshot || types[1] != EventAnnouncement {
		t.Errorf("expected [snapshot announcement], got %v", types)
	}
}

func TestStartStop(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{}}
	p := New(src, Options{Interval: 10 * time.Millisecond, Logger: discardLogger()})

	ch := p.AddListener()
	defer p.RemoveListener(ch)

	p.Start(context.Background())
	p.Start(context.Background()) // second start is a no-op

	deadline := time.After(2 * time.Second)
	for seen := 0; seen < 3; {
		select {
		case ev := <-ch:
			if ev.Type == EventSnapshot {
				seen++
			}
		case <-deadline:
			t.Fatal("timed out waiting for ticks")
		}
	}

	p.Stop()
	p.Stop() // second stop is a no-op

	src.mu.Lock()
	calls := src.calls
	src.mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.calls != calls {
		t.Errorf("expected no ticks after Stop, calls went from %d to %d", calls, src.calls)
	}
}

func TestBroadcaster(t *testing.T) {
	var b Broadcaster

	ch := b.AddListener()
	if b.ListenerCount() != 1 {
		t.Fatalf("expected 1 listener, got %d", b.ListenerCount())
	}

	// Overfill the buffer; Broadcast must not block.
	for i := 0; i < cap(ch)+10; i++ {
		b.Broadcast(Event{Type: EventSnapshot})
	}
	if len(ch) != cap(ch) {
		t.Errorf("expected full buffer, got %d/%d", len(ch), cap(ch))
	}

	b.RemoveListener(ch)
	if b.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", b.ListenerCount())
	}
	for range ch {
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
}

// slowAnnouncer holds every announcement until released.
type slowAnnouncer struct {
	started chan string
	release chan struct{}
}

func (a *slowAnnouncer) Announce(ctx context.Context, rec appliance.Recognition) error {
	a.started <- rec.Identity
	select {
	case <-a.release:
	case <-ctx.Done():
	}
	return nil
}

func TestRefresh_NotBlockedBySpeech(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	speech := &slowAnnouncer{started: make(chan string, 4), release: make(chan struct{})}
	queue := announce.NewQueue(speech, 4, discardLogger())
	defer queue.Close()
	defer close(speech.release)

	p := New(src, Options{Announcer: queue, Logger: discardLogger()})
	p.afterFunc = (&manualTimers{}).afterFunc
	ctx := context.Background()

	src.recognize("Alice", "2025-10-09T08:00:00Z")
	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	select {
	case id := <-speech.started:
		if id != "Alice" {
			t.Errorf("expected 'Alice' to be spoken, got '%s'", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("announcement was never delivered")
	}

	// Speech for Alice is still running; the next tick must not wait for it.
	done := make(chan error, 1)
	go func() { done <- p.Refresh(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second Refresh failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second Refresh blocked while an announcement was being spoken")
	}
	if p.Snapshot().Tick != 2 {
		t.Errorf("expected tick 2, got %d", p.Snapshot().Tick)
	}
}

// ctxJournal fails records whose context is already cancelled.
type ctxJournal struct {
	*mock.MockRecognitionWriter
}

func (j ctxJournal) Record(ctx context.Context, rec database.StoredRecognition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return j.MockRecognitionWriter.Record(ctx, rec)
}

func TestAnnounce_RecordsAfterCallerCancels(t *testing.T) {
	src := &fakeSource{status: &appliance.SystemStatus{CameraActive: true}}
	journal := ctxJournal{mock.NewMockRecognitionWriter()}

	ctx, cancel := context.WithCancel(context.Background())
	p := New(src, Options{
		Journal: journal,
		Logger:  discardLogger(),
		// The caller goes away once the snapshot is applied.
		OnSnapshot: func(Snapshot) { cancel() },
	})
	p.afterFunc = (&manualTimers{}).afterFunc

	src.recognize("Alice", "2025-10-09T08:00:00Z")
	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if entries := journal.Entries(); len(entries) != 1 {
		t.Errorf("expected the announcement to be recorded, got %d entries", len(entries))
	}
}
