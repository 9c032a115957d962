// Package journal keeps a local sqlite record of the status updates this
// client has posted.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chirp/internal/tweet"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite journal file.
type DB struct{ sql *sql.DB }

// Entry is one journaled update.
type Entry struct {
	ID       int64
	TS       time.Time
	FromUser string
	Status   string
}

func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection so ":memory:" databases are shared
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS updates (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  from_user TEXT NOT NULL,
	  status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_updates_ts ON updates(ts);
	`)
	return err
}

// RecordUpdate stores a posted status. at is used when the service did not
// report a creation time.
func (d *DB) RecordUpdate(ctx context.Context, t tweet.Tweet, at time.Time) error {
	ts := at
	if t.Timestamped() {
		ts = t.CreatedAt
	}
	_, err := d.sql.ExecContext(ctx, `INSERT INTO updates(ts, from_user, status) VALUES(?,?,?)`, ts.Unix(), t.FromUser, t.Status)
	if err != nil {
		return fmt.Errorf("journal: record update: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT id, ts, from_user, status FROM updates ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.FromUser, &e.Status); err != nil {
			return nil, err
		}
		e.TS = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Tweet renders the entry in the normalizer's shape for display.
func (e Entry) Tweet() tweet.Tweet {
	return tweet.Tweet{FromUser: e.FromUser, CreatedAt: e.TS, Status: e.Status}
}
