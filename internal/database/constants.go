package database

import "github.com/kozaktomas/face-console/internal/constants"

// DefaultRecentLimit is used by Recent when the caller passes a non-positive limit.
const DefaultRecentLimit = constants.DefaultJournalLimit
