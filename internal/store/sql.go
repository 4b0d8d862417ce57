package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect struct {
	name   string
	schema string
	get    string
	set    string
	del    string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
	CREATE TABLE IF NOT EXISTS kv_blobs (
        blob_key TEXT PRIMARY KEY,
        blob_value BLOB NOT NULL,
        updated_at INTEGER NOT NULL
    );
	`,
	get: `SELECT blob_value FROM kv_blobs WHERE blob_key = ?;`,
	set: `
	INSERT OR REPLACE INTO kv_blobs (blob_key, blob_value, updated_at)
    VALUES (?, ?, ?);
	`,
	del: `DELETE FROM kv_blobs WHERE blob_key = ?;`,
}

var postgresDialect = dialect{
	name: "postgres",
	schema: `
	CREATE TABLE IF NOT EXISTS kv_blobs (
        blob_key TEXT PRIMARY KEY,
        blob_value BYTEA NOT NULL,
        updated_at BIGINT NOT NULL
    );
	`,
	get: `SELECT blob_value FROM kv_blobs WHERE blob_key = $1;`,
	set: `
	INSERT INTO kv_blobs (blob_key, blob_value, updated_at)
    VALUES ($1, $2, $3)
	ON CONFLICT (blob_key) DO UPDATE
	SET blob_value = EXCLUDED.blob_value,
		updated_at = EXCLUDED.updated_at;
	`,
	del: `DELETE FROM kv_blobs WHERE blob_key = $1;`,
}

// SQLStore keeps blobs in a single kv_blobs table. The same type serves
// SQLite (modernc) and Postgres (pgx); only the statements differ.
type SQLStore struct {
	DB      *sql.DB
	dialect dialect
}

// NewSQLiteStore wraps an open SQLite handle.
func NewSQLiteStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, dialect: sqliteDialect}
}

// NewPostgresStore wraps an open Postgres handle (pgx stdlib driver).
func NewPostgresStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, dialect: postgresDialect}
}

// OpenSQLite opens (creating if needed) the database file at path and
// initializes the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	// One connection: ":memory:" databases are per-connection and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects to databaseURL and initializes the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := NewPostgresStore(db)
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("verify %s connection: %w", s.dialect.name, err)
	}
	if err := s.InitSchema(ctx); err != nil {
		return err
	}
	return nil
}

// InitSchema creates the kv_blobs table when missing.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("init schema: db is nil")
	}
	if _, err := s.DB.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("init schema: create kv_blobs table: %w", err)
	}
	return nil
}

// Get returns the blob stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.DB == nil {
		return nil, errors.New("kv store: db is nil")
	}

	var value []byte
	err := s.DB.QueryRowContext(ctx, s.dialect.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get kv blob %q: %w", key, err)
	}
	return value, nil
}

// Set upserts the blob under key.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if s.DB == nil {
		return errors.New("kv store: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("set kv blob: empty key")
	}

	if _, err := s.DB.ExecContext(ctx, s.dialect.set, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("set kv blob %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if s.DB == nil {
		return errors.New("kv store: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, s.dialect.del, key); err != nil {
		return fmt.Errorf("delete kv blob %q: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.DB.Close()
}
