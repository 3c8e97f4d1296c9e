package database

import (
	"context"
	"testing"
	"time"

	"github.com/kozaktomas/face-console/internal/appliance"
)

func TestMemoryJournal_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal(10)

	for _, name := range []string{"alice", "bob", "carol"} {
		if err := j.Record(ctx, StoredRecognition{Identity: name}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Identity != "carol" || got[1].Identity != "bob" {
		t.Errorf("expected [carol bob], got [%s %s]", got[0].Identity, got[1].Identity)
	}
}

func TestMemoryJournal_Wraps(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal(3)

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		j.Record(ctx, StoredRecognition{Identity: name})
	}

	count, _ := j.Count(ctx)
	if count != 3 {
		t.Errorf("expected count 3 after wrap, got %d", count)
	}

	got, _ := j.Recent(ctx, 0)
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Identity
	}
	expected := []string{"e", "d", "c"}
	for i := range expected {
		if names[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, names)
		}
	}
}

func TestMemoryJournal_Empty(t *testing.T) {
	j := NewMemoryJournal(0)

	got, err := j.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestNewStoredRecognition(t *testing.T) {
	rec := appliance.Recognition{Identity: "alice", Confidence: 0.92, Timestamp: "2025-10-09T08:53:20Z"}

	s := NewStoredRecognition(rec, SourcePoll)
	if s.ID == "" {
		t.Error("expected generated ID")
	}
	if s.Identity != "alice" || s.Confidence != 0.92 || s.Source != SourcePoll {
		t.Errorf("unexpected entry: %+v", s)
	}
	if s.RecognizedAt.IsZero() || s.RecognizedAt.Day() != 9 {
		t.Errorf("expected parsed recognition time, got %v", s.RecognizedAt)
	}
	if s.ObservedAt.IsZero() {
		t.Error("expected observed time to be set")
	}
}

func TestNewStoredRecognition_SimpleModeTimestamp(t *testing.T) {
	s := NewStoredRecognition(appliance.Recognition{Identity: "bob", Timestamp: "2025-10-09 10:15:00"}, SourceSimple)
	if s.RecognizedAt.IsZero() {
		t.Fatal("expected parsed recognition time")
	}
	if local := s.RecognizedAt.In(time.Local); local.Hour() != 10 || local.Minute() != 15 {
		t.Errorf("expected 10:15 local, got %v", local)
	}
}

func TestNewStoredRecognition_BadTimestamp(t *testing.T) {
	s := NewStoredRecognition(appliance.Recognition{Identity: "bob", Timestamp: "yesterday"}, SourceTrigger)
	if !s.RecognizedAt.IsZero() {
		t.Errorf("expected zero recognition time, got %v", s.RecognizedAt)
	}
}
