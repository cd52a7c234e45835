// Package history keeps a persistent transcript of all CPDLC/telex traffic
// in a sqlite database, so prior clearances survive a restart.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Direction distinguishes received from transmitted traffic.
type Direction int

const (
	DirectionIn Direction = iota + 1
	DirectionOut
)

// Record is one transcript line.
type Record struct {
	ID        int64
	Sender    string
	Direction Direction
	Body      string
	At        time.Time
}

// DB wraps the transcript database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the transcript database at path and applies the
// schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping transcript db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			sender    TEXT NOT NULL,
			direction INTEGER NOT NULL,
			body      TEXT NOT NULL,
			at        INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_at ON messages(at);
	`)
	if err != nil {
		return fmt.Errorf("migrate transcript db: %w", err)
	}
	return nil
}

// Append stores one transcript record. A zero At is stamped with the current
// time.
func (d *DB) Append(ctx context.Context, rec Record) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO messages(sender, direction, body, at)
		VALUES(?, ?, ?, ?)
	`, rec.Sender, int(rec.Direction), rec.Body, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert transcript record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, oldest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, sender, direction, body, at
		FROM messages
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transcript records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			direction int
			at        int64
		)
		if err := rows.Scan(&rec.ID, &rec.Sender, &direction, &rec.Body, &at); err != nil {
			return nil, fmt.Errorf("scan transcript record: %w", err)
		}
		rec.Direction = Direction(direction)
		rec.At = time.UnixMilli(at)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript records: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
