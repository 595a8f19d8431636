package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Bookmark represents a row in the bookmarks table.
type Bookmark struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Title     string    `db:"title" json:"title"`
	URL       string    `db:"url" json:"url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BookmarkStore is the sqlx-backed implementation of BookmarkStoreIface.
type BookmarkStore struct {
	db       *sqlx.DB
	onChange ChangeFunc
}

// NewBookmarkStore creates a BookmarkStore. onChange may be nil.
func NewBookmarkStore(db *sqlx.DB, onChange ChangeFunc) *BookmarkStore {
	return &BookmarkStore{db: db, onChange: onChange}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *BookmarkStore) q(query string) string { return s.db.Rebind(query) }

// ListByOwner returns all bookmarks for ownerID, newest first. The id
// tiebreaker keeps the order stable when timestamps collide.
func (s *BookmarkStore) ListByOwner(ctx context.Context, ownerID string) ([]*Bookmark, error) {
	bookmarks := []*Bookmark{}
	err := s.db.SelectContext(ctx, &bookmarks, s.q(`
		SELECT * FROM bookmarks WHERE owner_id = ? ORDER BY created_at DESC, id DESC
	`), ownerID)
	if err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// GetByID returns the bookmark matching id, or ErrNotFound. Rows belonging
// to other owners are indistinguishable from missing rows.
func (s *BookmarkStore) GetByID(ctx context.Context, ownerID, id string) (*Bookmark, error) {
	var b Bookmark
	err := s.db.GetContext(ctx, &b, s.q(`
		SELECT * FROM bookmarks WHERE id = ? AND owner_id = ?
	`), id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Insert creates a bookmark for ownerID and returns the authoritative row.
// The id and created_at are assigned here, never by the caller.
func (s *BookmarkStore) Insert(ctx context.Context, ownerID, title, url string) (*Bookmark, error) {
	if err := ValidateBookmark(title, url); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO bookmarks (id, owner_id, title, url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), id, ownerID, title, url, now)
	if err != nil {
		return nil, err
	}

	b, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if s.onChange != nil {
		s.onChange(ctx, ChangeInsert, b)
	}
	return b, nil
}

// Delete removes the bookmark matching id for ownerID. Returns ErrNotFound
// when the row does not exist or belongs to someone else.
func (s *BookmarkStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM bookmarks WHERE id = ? AND owner_id = ?
	`), id, ownerID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	if s.onChange != nil {
		s.onChange(ctx, ChangeDelete, &Bookmark{ID: id, OwnerID: ownerID})
	}
	return nil
}
