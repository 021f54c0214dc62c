// Package vault is the composition root: it wires the database, migrations,
// cipher, and type registry into a ready-to-use token store and exposes the
// five-call contract the rest of the platform programs against.
package vault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/tokenvault/internal/config"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
	"github.com/ericfisherdev/tokenvault/internal/encryption"
	"github.com/ericfisherdev/tokenvault/internal/registry"
	"github.com/ericfisherdev/tokenvault/internal/vaulttypes"
)

// Vault owns the storage engine and its type registry for one database.
type Vault struct {
	db    *sqlite.DB
	store driven.TokenStore
	types *registry.Registry
}

// Open builds a Vault: opens the database, applies migrations, constructs the
// cipher (fail-fast when no valid key is resolvable), registers the built-in
// token types, and wires the storage engine. A nil logger falls back to
// slog.Default().
func Open(cfg *config.Config, logger *slog.Logger) (*Vault, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := sqlite.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, err
	}

	cipher, err := encryption.New(cfg.EncryptionKey)
	if err != nil {
		db.Close()
		return nil, err
	}

	types := registry.New()
	if err := vaulttypes.RegisterBuiltins(types); err != nil {
		db.Close()
		return nil, fmt.Errorf("register builtin types: %w", err)
	}

	logger.Info("token vault opened",
		"db_path", cfg.DBPath,
		"registered_types", len(types.ListTypes()),
	)

	return &Vault{
		db:    db,
		store: sqlite.NewTokenRepo(db, cipher, types, logger),
		types: types,
	}, nil
}

// RegisterType adds or replaces a token type at runtime. The type's table is
// created on first use.
func (v *Vault) RegisterType(name string, cfg model.TokenTypeConfig) error {
	return v.types.Register(name, cfg)
}

// IsRegistered reports whether a token type is known.
func (v *Vault) IsRegistered(name string) bool {
	return v.types.IsRegistered(name)
}

// ListTypes returns all registered token type names in registration order.
func (v *Vault) ListTypes() []string {
	return v.types.ListTypes()
}

// Upsert stores or fully replaces a token. See driven.TokenStore.
func (v *Vault) Upsert(ctx context.Context, tokenType, userID string, data any) (bool, error) {
	return v.store.Upsert(ctx, tokenType, userID, data)
}

// Get retrieves a token, or nil when absent or undecryptable. See
// driven.TokenStore.
func (v *Vault) Get(ctx context.Context, tokenType, userID string) (any, error) {
	return v.store.Get(ctx, tokenType, userID)
}

// Delete removes a token and reports whether one existed. See
// driven.TokenStore.
func (v *Vault) Delete(ctx context.Context, tokenType, userID string) (bool, error) {
	return v.store.Delete(ctx, tokenType, userID)
}

// Store exposes the underlying TokenStore port for collaborators that take
// the interface.
func (v *Vault) Store() driven.TokenStore {
	return v.store
}

// Close releases the database connections.
func (v *Vault) Close() error {
	return v.db.Close()
}
