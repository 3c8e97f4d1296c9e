package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-console/internal/appliance"
)

// Source identifies which console path observed a recognition.
type Source string

// Source constants name the paths a recognition can be recorded from.
const (
	SourcePoll    Source = "poll"    // announced by the status poller
	SourceTrigger Source = "trigger" // manual recognition trigger
	SourceSimple  Source = "simple"  // simple-mode recognition
)

// StoredRecognition is one recognition kept in the journal.
type StoredRecognition struct {
	ID           string    `json:"id" yaml:"id"`
	Identity     string    `json:"identity" yaml:"identity"`
	Confidence   float64   `json:"confidence" yaml:"confidence"`
	Source       Source    `json:"source" yaml:"source"`
	RecognizedAt time.Time `json:"recognized_at,omitzero" yaml:"recognized_at,omitempty"` // appliance timestamp, zero when it sent none or an unparsable one
	ObservedAt   time.Time `json:"observed_at" yaml:"observed_at"`
}

// NewStoredRecognition builds a journal entry for rec observed now.
func NewStoredRecognition(rec appliance.Recognition, source Source) StoredRecognition {
	s := StoredRecognition{
		ID:         uuid.NewString(),
		Identity:   rec.Identity,
		Confidence: float64(rec.Confidence),
		Source:     source,
		ObservedAt: time.Now().UTC(),
	}
	if t, ok := parseTimestamp(rec.Timestamp); ok {
		s.RecognizedAt = t.UTC()
	}
	return s
}

// timestampLayouts are the formats the appliance uses for recognition times.
// The second one carries no zone and is read as local time.
var timestampLayouts = []string{time.RFC3339, time.DateTime}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
