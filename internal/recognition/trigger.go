// Package recognition runs on-demand recognitions against the appliance
// and keeps the last result for display.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/face-console/internal/announce"
	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/database"
)

var (
	// ErrCameraInactive is returned without contacting the appliance when
	// the camera is known to be off.
	ErrCameraInactive = errors.New("camera is not active")
	// ErrBlankName is returned by SimpleEnroll for an empty name.
	ErrBlankName = errors.New("name is required")
)

// unknownIdentity is what the appliance reports for a face it could not match.
const unknownIdentity = "Unknown"

// Client is the subset of the appliance client the trigger uses.
type Client interface {
	StartCamera(ctx context.Context) error
	StopCamera(ctx context.Context) error
	Recognize(ctx context.Context) (*appliance.RecognizeReply, error)
	SimpleRecognize(ctx context.Context) (*appliance.RecognizeReply, error)
	SimpleEnroll(ctx context.Context, name string) (string, error)
}

// Result is the outcome of one recognize call.
//
// A match has Succeeded and Matched set. A negative result (no face, or a
// face the appliance could not match) has Matched unset and an empty
// ErrorMessage; it is a valid answer, not a failure. A hard failure carries
// ErrorMessage.
type Result struct {
	Succeeded    bool      `json:"succeeded"`
	Matched      bool      `json:"matched"`
	Identity     string    `json:"identity,omitempty"`
	Confidence   float64   `json:"confidence,omitempty"`
	Timestamp    string    `json:"timestamp,omitempty"`
	Message      string    `json:"message,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	FaceImage    string    `json:"face_image,omitempty"`
	At           time.Time `json:"at"`
}

// Negative reports whether r is a valid "no match" answer.
func (r Result) Negative() bool {
	return !r.Matched && r.ErrorMessage == ""
}

// Recognition converts a match into the shared recognition type.
func (r Result) Recognition() appliance.Recognition {
	return appliance.Recognition{
		Identity:   r.Identity,
		Confidence: appliance.Confidence(r.Confidence),
		Timestamp:  r.Timestamp,
	}
}

// Trigger issues recognitions and camera commands.
type Trigger struct {
	client    Client
	journal   database.RecognitionWriter
	announcer announce.Announcer
	logger    *slog.Logger

	mu           sync.RWMutex
	cameraActive bool
	last         *Result
}

// NewTrigger creates a trigger. journal and announcer may be nil.
// The announcer speaks simple-mode matches and is called inline, so a
// long-running one should be wrapped in announce.Queue.
func NewTrigger(client Client, journal database.RecognitionWriter, announcer announce.Announcer, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{client: client, journal: journal, announcer: announcer, logger: logger}
}

// CameraActive returns the camera flag as last known.
func (t *Trigger) CameraActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cameraActive
}

// SetCameraActive updates the camera flag from a status poll.
func (t *Trigger) SetCameraActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cameraActive = active
}

// LastResult returns the result of the last recognize call, or nil.
func (t *Trigger) LastResult() *Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return nil
	}
	r := *t.last
	return &r
}

// StartCamera turns the appliance camera on.
func (t *Trigger) StartCamera(ctx context.Context) error {
	if err := t.client.StartCamera(ctx); err != nil {
		return fmt.Errorf("failed to start camera: %w", err)
	}
	t.SetCameraActive(true)
	return nil
}

// StopCamera turns the appliance camera off and clears the last result.
func (t *Trigger) StopCamera(ctx context.Context) error {
	if err := t.client.StopCamera(ctx); err != nil {
		return fmt.Errorf("failed to stop camera: %w", err)
	}
	t.mu.Lock()
	t.cameraActive = false
	t.last = nil
	t.mu.Unlock()
	return nil
}

// Recognize runs one recognition. It fails with ErrCameraInactive, without
// a request, while the camera is off.
func (t *Trigger) Recognize(ctx context.Context) (Result, error) {
	return t.run(ctx, t.client.Recognize, database.SourceTrigger)
}

// SimpleRecognize runs the simple-mode recognition, whose result also
// carries the detected face crop. A match is announced.
func (t *Trigger) SimpleRecognize(ctx context.Context) (Result, error) {
	return t.run(ctx, t.client.SimpleRecognize, database.SourceSimple)
}

func (t *Trigger) run(ctx context.Context, call func(context.Context) (*appliance.RecognizeReply, error), source database.Source) (Result, error) {
	if !t.CameraActive() {
		return Result{}, ErrCameraInactive
	}

	reply, err := call(ctx)
	if err != nil {
		result := Result{ErrorMessage: appliance.ServerMessage(err), At: time.Now().UTC()}
		t.store(result)
		return result, fmt.Errorf("recognition failed: %w", err)
	}

	result := resultFromReply(reply)
	t.store(result)

	if !result.Matched {
		return result, nil
	}
	if source == database.SourceSimple && t.announcer != nil {
		if err := t.announcer.Announce(ctx, result.Recognition()); err != nil {
			t.logger.WarnContext(ctx, "announcement failed", "identity", result.Identity, "error", err)
		}
	}
	if t.journal != nil {
		if err := t.journal.Record(ctx, database.NewStoredRecognition(result.Recognition(), source)); err != nil {
			t.logger.WarnContext(ctx, "failed to record recognition", "identity", result.Identity, "error", err)
		}
	}
	return result, nil
}

func resultFromReply(reply *appliance.RecognizeReply) Result {
	result := Result{
		Succeeded: reply.Success,
		Timestamp: reply.Timestamp,
		Message:   reply.Result,
		FaceImage: reply.FaceImage,
		At:        time.Now().UTC(),
	}

	if !reply.Success {
		// {success:false, result} is a negative answer; without a result
		// the appliance is reporting a failure.
		if reply.Result == "" {
			result.ErrorMessage = reply.Error
			if result.ErrorMessage == "" {
				result.ErrorMessage = "recognition failed"
			}
		}
		return result
	}

	who := reply.Who()
	result.Identity = who
	result.Confidence = float64(reply.Confidence)
	result.Matched = who != "" && !strings.EqualFold(who, unknownIdentity)
	return result
}

func (t *Trigger) store(r Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = &r
}

// SimpleEnroll enrolls name from the current frame and returns the
// appliance message.
func (t *Trigger) SimpleEnroll(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBlankName
	}
	msg, err := t.client.SimpleEnroll(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to enroll %s: %w", name, err)
	}
	return msg, nil
}
