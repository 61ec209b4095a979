// Package sqlitedoc stores the sent-records document as a row in a
// SQLite database.
package sqlitedoc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mothmailer/mothmailer/store"
)

const DefaultDocument = "sent"

const schema = `CREATE TABLE IF NOT EXISTS documents (
	name        TEXT PRIMARY KEY,
	body        TEXT NOT NULL,
	modified_on TIMESTAMP NOT NULL
)`

type DB struct {
	db   *sql.DB
	name string
}

// Open opens (or creates) the database at path.
func Open(ctx context.Context, path, name string) (*DB, error) {
	if path == "" {
		return nil, errors.New("sqlitedoc: path required")
	}
	if name == "" {
		name = DefaultDocument
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitedoc: creating schema: %w", err)
	}

	return &DB{db: db, name: name}, nil
}

func (d *DB) Name() string {
	return "sqlite:" + d.name
}

func (d *DB) Read(ctx context.Context) ([]byte, error) {
	var body string
	err := d.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE name = ?", d.name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return []byte(body), nil
}

func (d *DB) Replace(ctx context.Context, b []byte) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO documents (name, body, modified_on) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET body = excluded.body, modified_on = excluded.modified_on`,
		d.name, string(b), time.Now().UTC(),
	)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}
