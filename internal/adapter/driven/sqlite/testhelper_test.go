package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tokenvault/internal/encryption"
	"github.com/ericfisherdev/tokenvault/internal/registry"
	"github.com/ericfisherdev/tokenvault/internal/vaulttypes"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via
// cache=shared. A unique name derived from t.Name() ensures isolation between
// parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename
	// component and cannot be misinterpreted as query parameters in the
	// "file:%s?..." DSN.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// setupTestRepo wires a TokenRepo over a fresh in-memory database with the
// built-in token types registered and a fresh random key.
func setupTestRepo(t *testing.T) (*TokenRepo, *DB, *registry.Registry) {
	t.Helper()

	db := setupTestDB(t)

	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	cipher, err := encryption.New(key)
	require.NoError(t, err)

	types := registry.New()
	require.NoError(t, vaulttypes.RegisterBuiltins(types))

	repo := NewTokenRepo(db, cipher, types, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return repo, db, types
}
