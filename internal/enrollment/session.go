// Package enrollment tracks a multi-pose enrollment driven against the
// appliance. The appliance owns the pose cursor; the session only caches the
// last value it reported.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kozaktomas/face-console/internal/appliance"
)

// State is the lifecycle state of a session.
type State string

// State constants. Completed and Failed are Idle-equivalent: no session is
// open on the appliance and Start may be called again. They only keep the
// outcome message for display.
const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

var (
	// ErrBlankName is returned by Start when the trimmed name is empty.
	ErrBlankName = errors.New("name is required")
	// ErrBusy is returned when another session call is still in flight.
	ErrBusy = errors.New("another enrollment request is in progress")
	// ErrNotActive is returned by Capture outside an active session.
	ErrNotActive = errors.New("no enrollment in progress")
	// ErrAlreadyActive is returned by Start while a session is active.
	ErrAlreadyActive = errors.New("enrollment already in progress")
	// ErrStale is returned when a reply arrives for a session that was
	// abandoned while the request was in flight. The reply is discarded.
	ErrStale = errors.New("enrollment session changed while request was in flight")
	// ErrSessionLost wraps the failure that moved the session to Failed.
	ErrSessionLost = errors.New("appliance lost the enrollment session")
)

// Client is the subset of the appliance client a session drives.
type Client interface {
	StartEnrollment(ctx context.Context, name string) (*appliance.EnrollmentStart, error)
	CaptureEnrollment(ctx context.Context, name string) (*appliance.EnrollmentCapture, error)
	CancelEnrollment(ctx context.Context) error
}

// Snapshot is a copy of the session state. Idle is true whenever no session
// is open, so consumers need not treat Completed and Failed specially.
type Snapshot struct {
	State       State  `json:"state"`
	Idle        bool   `json:"idle"`
	UserName    string `json:"user_name,omitempty"`
	PoseIndex   int    `json:"pose_index"`
	TotalPoses  int    `json:"total_poses"`
	CurrentPose string `json:"current_pose,omitempty"`
	Progress    string `json:"progress,omitempty"`
	Message     string `json:"message,omitempty"`
	Busy        bool   `json:"busy"`
}

// Options configures the session hooks.
type Options struct {
	// OnComplete runs after the appliance reports the enrollment complete.
	OnComplete func(ctx context.Context, name string)
	// OnChange runs after every state change with the new snapshot.
	OnChange func(Snapshot)
}

// Session is the console-wide enrollment session. Only one Start, Capture
// or Cancel call runs at a time.
type Session struct {
	client Client
	opts   Options

	inflight sync.Mutex
	busy     atomic.Bool

	mu          sync.RWMutex
	state       State
	userName    string
	poseIndex   int
	totalPoses  int
	currentPose string
	message     string
	generation  uint64
}

// NewSession creates an idle session.
func NewSession(client Client, opts Options) *Session {
	return &Session{client: client, opts: opts, state: StateIdle}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Idle:        s.state != StateActive,
		UserName:    s.userName,
		PoseIndex:   s.poseIndex,
		TotalPoses:  s.totalPoses,
		CurrentPose: s.currentPose,
		Message:     s.message,
		Busy:        s.busy.Load(),
	}
	if s.state == StateActive {
		snap.Progress = progress(s.poseIndex, s.totalPoses)
	}
	return snap
}

// Progress returns the "<pose>/<total>" label, or "" when not active.
func (s *Session) Progress() string {
	return s.Snapshot().Progress
}

// CanStart reports whether Start may be called.
func (s *Session) CanStart() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != StateActive && !s.busy.Load()
}

func progress(poseIndex, total int) string {
	return fmt.Sprintf("%d/%d", poseIndex+1, total)
}

// acquire takes the in-flight guard or reports ErrBusy.
func (s *Session) acquire() error {
	if !s.inflight.TryLock() {
		return ErrBusy
	}
	s.busy.Store(true)
	return nil
}

func (s *Session) release() {
	s.busy.Store(false)
	s.inflight.Unlock()
}

// Start opens a session for name. On failure the session is left as it was.
func (s *Session) Start(ctx context.Context, name string) (Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.Snapshot(), ErrBlankName
	}
	if err := s.acquire(); err != nil {
		return s.Snapshot(), err
	}
	defer s.release()

	s.mu.RLock()
	active := s.state == StateActive
	gen := s.generation
	s.mu.RUnlock()
	if active {
		return s.Snapshot(), ErrAlreadyActive
	}

	reply, err := s.client.StartEnrollment(ctx, name)

	s.mu.Lock()
	if s.generation != gen {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrStale
	}
	if err != nil {
		s.message = appliance.ServerMessage(err)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return snap, fmt.Errorf("failed to start enrollment for %s: %w", name, err)
	}

	s.generation++
	s.state = StateActive
	s.userName = name
	s.poseIndex = reply.PoseIndex
	s.totalPoses = reply.TotalPoses
	s.currentPose = reply.CurrentPose
	s.message = reply.Message
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// Capture records the current pose. The stored cursor is replaced with the
// appliance's reply, never advanced locally. A failed capture keeps the
// session active with its cursor unchanged, except when the appliance no
// longer knows the enrollment, which moves the session to Failed.
func (s *Session) Capture(ctx context.Context) (Snapshot, error) {
	if err := s.acquire(); err != nil {
		return s.Snapshot(), err
	}
	defer s.release()

	s.mu.RLock()
	active := s.state == StateActive
	name := s.userName
	gen := s.generation
	s.mu.RUnlock()
	if !active {
		return s.Snapshot(), ErrNotActive
	}

	reply, err := s.client.CaptureEnrollment(ctx, name)

	s.mu.Lock()
	if s.generation != gen {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrStale
	}

	if err != nil {
		if isSessionLost(err) {
			s.generation++
			s.clearLocked(StateFailed, appliance.ServerMessage(err))
			snap := s.snapshotLocked()
			s.mu.Unlock()
			s.notify(snap)
			return snap, fmt.Errorf("%w: %w", ErrSessionLost, err)
		}
		s.message = appliance.ServerMessage(err)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return snap, fmt.Errorf("failed to capture pose %s for %s: %w", progress(snap.PoseIndex, snap.TotalPoses), name, err)
	}

	if reply.Complete {
		s.generation++
		s.clearLocked(StateCompleted, reply.Message)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		if s.opts.OnComplete != nil {
			s.opts.OnComplete(ctx, name)
		}
		return snap, nil
	}

	s.poseIndex = reply.PoseIndex
	s.currentPose = reply.NextPose
	s.message = reply.Message
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// Cancel asks the appliance to drop the enrollment. On success the session
// returns to Idle and every field is cleared regardless of the reply
// content; on failure the session is kept so the user can retry.
// Calling Cancel outside an active session is allowed.
func (s *Session) Cancel(ctx context.Context) (Snapshot, error) {
	if err := s.acquire(); err != nil {
		return s.Snapshot(), err
	}
	defer s.release()

	if err := s.client.CancelEnrollment(ctx); err != nil {
		s.mu.Lock()
		s.message = appliance.ServerMessage(err)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return snap, fmt.Errorf("failed to cancel enrollment: %w", err)
	}

	s.mu.Lock()
	s.generation++
	s.clearLocked(StateIdle, "")
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// Abandon drops the local session without contacting the appliance.
// A request still in flight will have its reply discarded with ErrStale.
func (s *Session) Abandon() Snapshot {
	s.mu.Lock()
	s.generation++
	s.clearLocked(StateIdle, "")
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

func (s *Session) clearLocked(state State, message string) {
	s.state = state
	s.userName = ""
	s.poseIndex = 0
	s.totalPoses = 0
	s.currentPose = ""
	s.message = message
}

func (s *Session) notify(snap Snapshot) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(snap)
	}
}

// isSessionLost reports whether err means the appliance has no enrollment
// in progress, so retrying the capture cannot succeed.
func isSessionLost(err error) bool {
	var apiErr *appliance.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "not started")
}
