package client

import (
	"time"

	"github.com/google/uuid"
)

// State distinguishes optimistic entries from authoritative ones.
type State int

const (
	// Pending entries exist only locally, under a temporary id, while the
	// gateway insert is in flight.
	Pending State = iota
	// Confirmed entries mirror an authoritative gateway row.
	Confirmed
)

// Entry is one bookmark in the client's materialized list. A Pending entry
// has TempID set and ID empty; a Confirmed entry has ID set and TempID
// empty. The temporary id is never sent to the gateway.
type Entry struct {
	State     State
	TempID    string
	ID        string
	Title     string
	URL       string
	CreatedAt time.Time
}

// Key returns the identifier the list is keyed by: the authoritative id for
// confirmed entries, the temporary id otherwise.
func (e *Entry) Key() string {
	if e.State == Confirmed {
		return e.ID
	}
	return e.TempID
}

func newTempID() string {
	return "tmp_" + uuid.New().String()
}

// before reports whether a sorts ahead of b: created_at descending, with the
// key as a stable tiebreaker for equal timestamps.
func before(a, b *Entry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Key() > b.Key()
}
