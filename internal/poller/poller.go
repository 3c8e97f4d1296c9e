// Package poller keeps a periodically refreshed copy of the appliance status
// and enrolled-user list, and announces each newly observed recognition.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kozaktomas/face-console/internal/announce"
	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/constants"
	"github.com/kozaktomas/face-console/internal/database"
	"golang.org/x/sync/errgroup"
)

// Source is the subset of the appliance client the poller reads from.
type Source interface {
	Status(ctx context.Context) (*appliance.SystemStatus, error)
	ListUsers(ctx context.Context) (*appliance.UserList, error)
}

// Snapshot is the state applied by one successful tick. Status and Users
// always come from the same tick.
type Snapshot struct {
	Status    appliance.SystemStatus  `json:"status" yaml:"status"`
	Users     []string                `json:"users" yaml:"users"`
	UserShape appliance.UserListShape `json:"user_shape,omitempty" yaml:"user_shape,omitempty"`
	FetchedAt time.Time               `json:"fetched_at" yaml:"fetched_at"`
	Tick      uint64                  `json:"tick" yaml:"tick"`
}

// Valid reports whether at least one tick has succeeded.
func (s Snapshot) Valid() bool {
	return !s.FetchedAt.IsZero()
}

// Options configures a Poller. Zero values fall back to defaults.
type Options struct {
	Interval      time.Duration
	AnnounceReset time.Duration
	Announcer     announce.Announcer         // called inside the tick; wrap speech in announce.Queue. nil disables announcements
	Journal       database.RecognitionWriter // nil disables recording
	OnSnapshot    func(Snapshot)             // runs after each applied snapshot
	Logger        *slog.Logger
}

// Poller owns the periodic status fetch.
type Poller struct {
	Broadcaster

	source        Source
	interval      time.Duration
	announceReset time.Duration
	announcer     announce.Announcer
	journal       database.RecognitionWriter
	onSnapshot    func(Snapshot)
	logger        *slog.Logger

	// afterFunc schedules the marker reset; replaced in tests.
	afterFunc func(d time.Duration, f func())

	tickMu sync.Mutex // serializes ticks so snapshots apply in fetch order

	mu          sync.RWMutex
	snapshot    Snapshot
	ticks       uint64
	announced   string
	announceSeq uint64
	lastEvent   string // identity and timestamp of the last announced recognition

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a poller reading from source.
func New(source Source, opts Options) *Poller {
	p := &Poller{
		source:        source,
		interval:      opts.Interval,
		announceReset: opts.AnnounceReset,
		announcer:     opts.Announcer,
		journal:       opts.Journal,
		onSnapshot:    opts.OnSnapshot,
		logger:        opts.Logger,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	if p.interval <= 0 {
		p.interval = constants.PollInterval
	}
	if p.announceReset <= 0 {
		p.announceReset = constants.AnnounceResetDelay
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Snapshot returns the last successfully applied state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// CameraActive reports the camera flag from the last snapshot.
func (p *Poller) CameraActive() bool {
	return p.Snapshot().Status.CameraActive
}

// Announced returns the identity currently held by the announcement marker.
func (p *Poller) Announced() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.announced
}

// Run ticks immediately and then every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Start runs the loop in the background. It is a no-op when already running.
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		p.Run(ctx)
	}()
}

// Stop cancels the background loop and waits for it to exit.
func (p *Poller) Stop() {
	p.runMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh performs an out-of-band tick and returns its error, if any.
func (p *Poller) Refresh(ctx context.Context) error {
	return p.poll(ctx)
}

func (p *Poller) tick(ctx context.Context) {
	if err := p.poll(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.WarnContext(ctx, "status poll failed, keeping previous state", "error", err)
		p.Broadcast(Event{Type: EventPollError, Message: err.Error()})
	}
}

// poll fetches status and users concurrently and applies them together.
// On any failure the previous snapshot is left untouched.
func (p *Poller) poll(ctx context.Context) error {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	var (
		status *appliance.SystemStatus
		users  *appliance.UserList
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		status, err = p.source.Status(gctx)
		if err != nil {
			return fmt.Errorf("fetching status: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = p.source.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("fetching users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	snap := p.apply(status, users)
	if p.onSnapshot != nil {
		p.onSnapshot(snap)
	}
	p.Broadcast(Event{Type: EventSnapshot, Data: snap})

	if rec := snap.Status.LastRecognition; rec != nil {
		p.maybeAnnounce(ctx, *rec)
	}
	return nil
}

func (p *Poller) apply(status *appliance.SystemStatus, users *appliance.UserList) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ticks++
	snap := Snapshot{
		Status:    *status,
		Users:     users.Names(),
		UserShape: users.Shape,
		FetchedAt: time.Now().UTC(),
		Tick:      p.ticks,
	}
	snap.Status.EnrolledUserCount = len(snap.Users)
	p.snapshot = snap
	return snap
}

// maybeAnnounce fires the one-shot announcement when rec carries an identity
// different from the marker, then arms the marker reset. A timestamped
// recognition already announced is not repeated once the marker clears.
func (p *Poller) maybeAnnounce(ctx context.Context, rec appliance.Recognition) {
	if rec.Identity == "" {
		return
	}
	event := ""
	if rec.Timestamp != "" {
		event = rec.Identity + "@" + rec.Timestamp
	}

	p.mu.Lock()
	if rec.Identity == p.announced || (event != "" && event == p.lastEvent) {
		p.mu.Unlock()
		return
	}
	p.announced = rec.Identity
	p.lastEvent = event
	p.announceSeq++
	seq := p.announceSeq
	p.mu.Unlock()

	p.afterFunc(p.announceReset, func() { p.clearMarker(seq) })

	p.Broadcast(Event{Type: EventAnnouncement, Data: rec})

	// The marker is already set, so the follow-up work must outlive a
	// Refresh caller that goes away.
	ctx = context.WithoutCancel(ctx)
	if p.announcer != nil {
		if err := p.announcer.Announce(ctx, rec); err != nil {
			p.logger.WarnContext(ctx, "announcement failed", "identity", rec.Identity, "error", err)
		}
	}
	if p.journal != nil {
		if err := p.journal.Record(ctx, database.NewStoredRecognition(rec, database.SourcePoll)); err != nil {
			p.logger.WarnContext(ctx, "failed to record recognition", "identity", rec.Identity, "error", err)
		}
	}
}

// clearMarker resets the marker unless a newer announcement replaced it.
func (p *Poller) clearMarker(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.announceSeq == seq {
		p.announced = ""
	}
}
