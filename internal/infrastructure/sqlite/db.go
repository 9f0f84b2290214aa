// Package sqlite stores orders and payments in an embedded SQLite database
// through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id          TEXT    PRIMARY KEY,
    author      TEXT    NOT NULL DEFAULT '',
    order_time  INTEGER NOT NULL,
    status      TEXT    NOT NULL,
    -- JSON array of line items; immutable after insert.
    products    TEXT    NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS payments (
    -- seq gives GetAllPayments its insertion order; upserts keep it.
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT    NOT NULL UNIQUE,
    method      TEXT    NOT NULL,
    order_id    TEXT    NOT NULL REFERENCES orders(id),
    data        TEXT    NOT NULL DEFAULT '{}',
    status      TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id);
`

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(on)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// One connection: a single writer, and an in-memory database lives per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return db, nil
}
