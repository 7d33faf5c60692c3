package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/servicesaver/servicesaver/internal/session"
)

// SQLite persists snapshots in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and creates tables if they don't
// exist. Opening fails if another process holds a write lock for longer
// than the busy timeout.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=2000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache tables: %w", err)
	}

	return &SQLite{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		uid TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (uid, kind)
	);
	`
	_, err := db.Exec(schema)
	return err
}

func (c *SQLite) put(ctx context.Context, uid, kind string, payload []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO snapshots (uid, kind, payload, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(uid, kind) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		uid, kind, string(payload))
	if err != nil {
		return fmt.Errorf("save %s snapshot: %w", kind, err)
	}
	return nil
}

func (c *SQLite) get(ctx context.Context, uid, kind string) ([]byte, bool, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE uid = ? AND kind = ?`, uid, kind).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s snapshot: %w", kind, err)
	}
	return []byte(payload), true, nil
}

// SaveSession implements session.Cache.
func (c *SQLite) SaveSession(ctx context.Context, uid string, s *session.Session) error {
	b, err := encodeSession(s)
	if err != nil {
		return err
	}
	return c.put(ctx, uid, kindSession, b)
}

// LoadSession implements session.Cache.
func (c *SQLite) LoadSession(ctx context.Context, uid string) (*session.Session, bool, error) {
	b, ok, err := c.get(ctx, uid, kindSession)
	if err != nil || !ok {
		return nil, false, err
	}
	s, err := decodeSession(b)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// SaveMessages implements session.Cache.
func (c *SQLite) SaveMessages(ctx context.Context, uid string, msgs []session.Message) error {
	b, err := encodeMessages(msgs)
	if err != nil {
		return err
	}
	return c.put(ctx, uid, kindMessages, b)
}

// LoadMessages implements session.Cache.
func (c *SQLite) LoadMessages(ctx context.Context, uid string) ([]session.Message, bool, error) {
	b, ok, err := c.get(ctx, uid, kindMessages)
	if err != nil || !ok {
		return nil, false, err
	}
	msgs, err := decodeMessages(b)
	if err != nil {
		return nil, false, err
	}
	return msgs, true, nil
}

// Clear implements session.Cache.
func (c *SQLite) Clear(ctx context.Context, uid string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM snapshots WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *SQLite) Close() error {
	return c.db.Close()
}
