// Package constants provides shared constants used across the codebase.
package constants

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// Request body constants
const (
	// MaxRequestBodySize is the maximum accepted JSON request body in bytes (1MB)
	MaxRequestBodySize = 1 << 20
)
