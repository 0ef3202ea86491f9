package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/mapping/internal/index"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists the id table in SQLite with a two-layer architecture:
//
// Layer 1: In-memory B-tree index of rows by id and by token (rows are immutable)
// Layer 2: SQLite table (feed_mappings) as the durable source of truth
//
// Index misses always fall through to SQLite, so several processes may share
// one database file.
type SQLiteStore struct {
	db   *sql.DB
	rows *index.Index
}

// NewSQLiteStore creates a new SQLite-backed store.
// The dbPath can be ":memory:" for an in-memory database or a file path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// A single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{
		db:   db,
		rows: index.New(),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates the database schema.
func (ss *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feed_mappings (
		id TEXT PRIMARY KEY,
		namespace TEXT NOT NULL,
		token TEXT NOT NULL,
		parent_id TEXT NOT NULL,
		name TEXT NOT NULL,
		create_time INTEGER NOT NULL,
		UNIQUE (namespace, token, parent_id)
	);
	CREATE INDEX IF NOT EXISTS idx_feed_mappings_parent ON feed_mappings(namespace, parent_id);
	`

	_, err := ss.db.Exec(schema)
	return err
}

// Name returns the identifier name defined for this store.
func (*SQLiteStore) Name() string {
	return "sqlite"
}

// Open verifies the database and loads all rows into the B-tree index.
func (ss *SQLiteStore) Open(ctx context.Context) error {
	if err := ss.db.PingContext(ctx); err != nil {
		return err
	}

	rows, err := ss.db.QueryContext(ctx, `
		SELECT namespace, token, id, parent_id, name, create_time FROM feed_mappings
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return err
		}
		ss.rows.Put(m)
	}

	return rows.Err()
}

// Close is part of the lifecycle and releases all resources.
func (ss *SQLiteStore) Close(ctx context.Context) error {
	ss.rows.Clear()
	return ss.db.Close()
}

func (ss *SQLiteStore) Lookup(ctx context.Context, namespace string, id data.ID) (*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if m, ok := ss.rows.ByID(namespace, id); ok {
		return m, nil
	}

	row := ss.db.QueryRowContext(ctx, `
		SELECT namespace, token, id, parent_id, name, create_time
		FROM feed_mappings WHERE namespace = ? AND id = ?
	`, namespace, id.String())

	return ss.readThrough(row)
}

func (ss *SQLiteStore) LookupByToken(ctx context.Context, namespace, token string, parent data.ID) (*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if m, ok := ss.rows.ByToken(namespace, token, parent); ok {
		return m, nil
	}

	row := ss.db.QueryRowContext(ctx, `
		SELECT namespace, token, id, parent_id, name, create_time
		FROM feed_mappings WHERE namespace = ? AND token = ? AND parent_id = ?
	`, namespace, token, parent.String())

	return ss.readThrough(row)
}

func (ss *SQLiteStore) Create(ctx context.Context, namespace, token string, parent data.ID, name string) (*data.Mapping, error) {
	if m, err := ss.LookupByToken(ctx, namespace, token, parent); err == nil {
		return m, nil
	} else if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}

	// Losers of a concurrent insert fall through to the re-read below
	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO feed_mappings (id, namespace, token, parent_id, name, create_time)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace, token, parent_id) DO NOTHING
	`, data.NewID().String(), namespace, token, parent.String(), name, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert mapping: %w", err)
	}

	return ss.LookupByToken(ctx, namespace, token, parent)
}

func (ss *SQLiteStore) Keys(ctx context.Context, namespace string, id data.ID) ([]*data.Mapping, error) {
	m, err := ss.Lookup(ctx, namespace, id)
	if errors.Is(err, data.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*data.Mapping{m}, nil
}

func (ss *SQLiteStore) DeleteByParent(ctx context.Context, namespace string, parent data.ID) ([]*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT namespace, token, id, parent_id, name, create_time
		FROM feed_mappings WHERE namespace = ? AND parent_id = ?
	`, namespace, parent.String())
	if err != nil {
		return nil, err
	}

	var removed []*data.Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM feed_mappings WHERE namespace = ? AND parent_id = ?
	`, namespace, parent.String()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	ss.rows.DeleteParent(namespace, parent)
	return removed, nil
}

func (ss *SQLiteStore) readThrough(row *sql.Row) (*data.Mapping, error) {
	m, err := scanMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	ss.rows.Put(m)
	return m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMapping(s scanner) (*data.Mapping, error) {
	var m data.Mapping
	var id, parentID string

	if err := s.Scan(&m.Namespace, &m.Token, &id, &parentID, &m.Name, &m.CreateTime); err != nil {
		return nil, err
	}

	var err error
	if m.ID, err = data.ParseID(id); err != nil {
		return nil, err
	}
	if m.ParentID, err = data.ParseID(parentID); err != nil {
		return nil, err
	}

	return &m, nil
}
