// Package notify is the change-notification feed: a per-owner
// publish/subscribe broker carrying row-level insert/delete events.
//
// Delivery is at-least-once and unordered. Subscribers must tolerate
// duplicates, events for rows they already know about, and deletes for rows
// they never saw.
package notify

import (
	"context"

	"github.com/marksapp/marks/internal/store"
)

const (
	KindInsert = "insert"
	KindDelete = "delete"
)

// Event is one row-level change. Bookmark is set for inserts; ID for deletes.
type Event struct {
	Kind     string          `json:"kind"`
	Bookmark *store.Bookmark `json:"bookmark,omitempty"`
	ID       string          `json:"id,omitempty"`
}

// Subscription is a live event feed for a single owner. Close releases the
// subscription; Events is closed afterwards.
type Subscription interface {
	Events() <-chan Event
	Close()
}

// Broker fans row-change events out to subscribers, scoped by owner so no
// session ever receives another user's changes.
type Broker interface {
	Publish(ctx context.Context, ownerID string, ev Event) error
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)
}

// ChangeFunc adapts a Broker into the store's post-mutation hook.
func ChangeFunc(b Broker) store.ChangeFunc {
	return func(ctx context.Context, kind store.ChangeKind, bm *store.Bookmark) {
		ev := Event{Kind: string(kind)}
		switch kind {
		case store.ChangeInsert:
			ev.Bookmark = bm
		case store.ChangeDelete:
			ev.ID = bm.ID
		default:
			return
		}
		_ = b.Publish(ctx, bm.OwnerID, ev)
	}
}
