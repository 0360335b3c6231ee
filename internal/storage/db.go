// Package storage is the sqlite persistence layer: visitor metrics, theme
// preferences and the contact inbox.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("storage: not found")

var (
	gooseOnce sync.Once
	gooseErr  error
)

// DB wraps the sqlite handle.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens the database at path and applies migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return setup(ctx, sqlDB, path)
}

// OpenMemory opens a private in-memory database, mainly for tests.
func OpenMemory(ctx context.Context) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory database")
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	return setup(ctx, sqlDB, ":memory:")
}

func setup(ctx context.Context, sqlDB *sql.DB, path string) (*DB, error) {
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	d := &DB{DB: sqlDB, path: path}
	if err := d.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Path is the file the database lives in.
func (d *DB) Path() string {
	return d.path
}

// Migrate applies the embedded goose migrations.
func (d *DB) Migrate(ctx context.Context) error {
	if err := configureGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, d.DB, "migrations"); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

// Version reports the applied migration version.
func (d *DB) Version(ctx context.Context) (int64, error) {
	if err := configureGoose(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, d.DB)
	return v, errors.Wrap(err, "read migration version")
}

func configureGoose() error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrationFiles)
		goose.SetLogger(gooseLogger{})
		goose.SetVerbose(false)
		gooseErr = goose.SetDialect("sqlite3")
	})
	return errors.Wrap(gooseErr, "configure migrations")
}
