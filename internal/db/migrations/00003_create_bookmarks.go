package migrations

// The bookmarks table is the single table that matters. Every query against
// it is owner-scoped; the (owner_id, created_at) index serves the one list
// shape the app renders (newest first, per user).

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateBookmarks, downCreateBookmarks)
}

func upCreateBookmarks(ctx context.Context, tx *sql.Tx) error {
	var ddl string
	switch dialect {
	case "mysql":
		ddl = `CREATE TABLE IF NOT EXISTS bookmarks (
    id         VARCHAR(36) PRIMARY KEY,
    owner_id   VARCHAR(36) NOT NULL,
    title      TEXT NOT NULL,
    url        TEXT NOT NULL,
    created_at TIMESTAMP(6) NOT NULL,
    CONSTRAINT bookmarks_owner_fk FOREIGN KEY (owner_id) REFERENCES users (id) ON DELETE CASCADE
)`
	default: // sqlite3, postgres
		ddl = `CREATE TABLE IF NOT EXISTS bookmarks (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title      TEXT NOT NULL,
    url        TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
)`
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create bookmarks table: %w", err)
	}
	_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS bookmarks_owner_created_idx ON bookmarks (owner_id, created_at)`)
	return err
}

func downCreateBookmarks(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS bookmarks`)
	return err
}
