// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Polling constants
const (
	// PollInterval is the period between two status poll ticks
	PollInterval = 5 * time.Second

	// AnnounceResetDelay is how long an announced identity stays suppressed
	// before the same identity can be announced again
	AnnounceResetDelay = 5 * time.Second

	// AnnounceQueueSize is the number of announcements waiting for speech
	// before new ones are dropped
	AnnounceQueueSize = 8
)

// Enrollment constants
const (
	// DefaultTotalPoses is used when the appliance omits total_poses
	DefaultTotalPoses = 5
)

// Face image constants
const (
	// FaceThumbnailSize is the maximum dimension (width or height) of saved face crops
	FaceThumbnailSize = 160
)

// Journal constants
const (
	// DefaultJournalLimit is the default number of recognition events to list
	DefaultJournalLimit = 50

	// MemoryJournalCapacity is the number of events kept by the in-memory journal
	MemoryJournalCapacity = 500
)
