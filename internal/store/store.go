package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested entity does not exist, or is
	// not visible to the requesting owner.
	ErrNotFound = errors.New("not found")
)

// BookmarkStoreIface exposes all bookmark data operations. Every method is
// owner-scoped: the owner filter in each query is the row-level access
// policy, so a caller can never read or delete another user's rows.
// No handler may query the DB directly; all access goes through this
// interface.
type BookmarkStoreIface interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*Bookmark, error)
	GetByID(ctx context.Context, ownerID, id string) (*Bookmark, error)
	Insert(ctx context.Context, ownerID, title, url string) (*Bookmark, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ChangeKind identifies the kind of a row change emitted by the store.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeDelete ChangeKind = "delete"
)

// ChangeFunc is invoked after a successful insert or delete, with the row
// affected. For deletes only ID and OwnerID are populated. Wired to the
// change-notification broker at startup.
type ChangeFunc func(ctx context.Context, kind ChangeKind, b *Bookmark)
