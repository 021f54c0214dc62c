package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
	"github.com/ericfisherdev/tokenvault/internal/encryption"
	"github.com/ericfisherdev/tokenvault/internal/registry"
)

// sqliteTimeFormat matches the text representation CURRENT_TIMESTAMP writes.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// Compile-time interface satisfaction check.
var _ driven.TokenStore = (*TokenRepo)(nil)

// TokenRepo is the SQLite implementation of the TokenStore port interface.
// It is the generic storage engine: one table per registered token type,
// field values marked encrypted in the type's config pass through the cipher
// on the way in and out, and everything else is stored verbatim.
//
// Error policy: an unregistered type is the only error the three operations
// return. Encryption and storage failures during writes are logged and
// reported as an unsuccessful write; a read that cannot be decrypted is
// logged and reported as absent, exactly like a token that was never stored.
type TokenRepo struct {
	db     *DB
	cipher *encryption.Cipher
	types  *registry.Registry
	logger *slog.Logger

	mu      sync.Mutex
	ensured map[string]bool
}

// NewTokenRepo creates a TokenRepo backed by the given DB, cipher, and type
// registry. A nil logger falls back to slog.Default().
func NewTokenRepo(db *DB, cipher *encryption.Cipher, types *registry.Registry, logger *slog.Logger) *TokenRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenRepo{
		db:      db,
		cipher:  cipher,
		types:   types,
		logger:  logger,
		ensured: make(map[string]bool),
	}
}

// Upsert inserts or fully replaces the token of the given type for userID.
// Reports false for any failure past the type lookup; callers retry at a
// higher layer if they care.
func (r *TokenRepo) Upsert(ctx context.Context, tokenType, userID string, data any) (bool, error) {
	cfg, err := r.types.Get(tokenType)
	if err != nil {
		return false, err
	}

	fields, err := r.flatten(cfg, data)
	if err != nil {
		r.logger.Error("upsert token: bad input",
			"token_type", tokenType, "user_id", userID, "error", err)
		return false, nil
	}

	for name := range fields {
		if !cfg.HasField(name) {
			r.logger.Error("upsert token: undeclared field",
				"token_type", tokenType, "user_id", userID, "field", name)
			return false, nil
		}
	}

	for _, name := range cfg.EncryptedFields {
		v, ok := fields[name].(string)
		if !ok || v == "" {
			continue
		}
		sealed, err := r.cipher.Encrypt(v)
		if err != nil {
			r.logger.Error("upsert token: encrypt field failed",
				"token_type", tokenType, "user_id", userID, "field", name, "error", err)
			return false, nil
		}
		fields[name] = sealed
	}

	if err := r.ensureTable(ctx, tokenType, cfg); err != nil {
		r.logger.Error("upsert token: ensure table failed",
			"token_type", tokenType, "user_id", userID, "error", err)
		return false, nil
	}

	args := make([]any, 0, len(cfg.Fields)+1)
	args = append(args, userID)
	for _, f := range cfg.Fields {
		bound, err := bindValue(f, fields[f.Name])
		if err != nil {
			r.logger.Error("upsert token: bad field value",
				"token_type", tokenType, "user_id", userID, "field", f.Name, "error", err)
			return false, nil
		}
		args = append(args, bound)
	}

	if _, err := r.db.Writer.ExecContext(ctx, upsertSQL(cfg), args...); err != nil {
		r.logger.Error("upsert token: write failed",
			"token_type", tokenType, "user_id", userID, "error", err)
		return false, nil
	}

	return true, nil
}

// Get retrieves the token of the given type for userID, decrypting encrypted
// fields. Returns (nil, nil) when no row exists and, deliberately, when any
// encrypted field fails to decrypt: a stale key, a corrupted row, and a
// tampered row all look like "no token configured", so downstream flows
// re-prompt for authentication instead of crashing or leaking a partial
// record. The stored row is not modified.
func (r *TokenRepo) Get(ctx context.Context, tokenType, userID string) (any, error) {
	cfg, err := r.types.Get(tokenType)
	if err != nil {
		return nil, err
	}

	if err := r.ensureTable(ctx, tokenType, cfg); err != nil {
		r.logger.Error("get token: ensure table failed",
			"token_type", tokenType, "user_id", userID, "error", err)
		return nil, nil
	}

	dest := make([]any, len(cfg.Fields)+2)
	raw := make([]sql.NullString, len(cfg.Fields)+2)
	for i := range dest {
		dest[i] = &raw[i]
	}

	err = r.db.Reader.QueryRowContext(ctx, selectSQL(cfg), userID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("get token: read failed",
			"token_type", tokenType, "user_id", userID, "error", err)
		return nil, nil
	}

	fields := map[string]any{"user_id": userID}
	for i, f := range cfg.Fields {
		v, err := scanValue(f, raw[i])
		if err != nil {
			r.logger.Error("get token: unreadable column, treating token as absent",
				"token_type", tokenType, "user_id", userID, "field", f.Name, "error", err)
			return nil, nil
		}
		fields[f.Name] = v
	}
	for i, name := range []string{"created_at", "updated_at"} {
		col := raw[len(cfg.Fields)+i]
		v, err := scanValue(model.Field{Name: name, Kind: model.FieldTime}, col)
		if err != nil {
			r.logger.Error("get token: unreadable column, treating token as absent",
				"token_type", tokenType, "user_id", userID, "field", name, "error", err)
			return nil, nil
		}
		fields[name] = v
	}

	for _, name := range cfg.EncryptedFields {
		v, ok := fields[name].(string)
		if !ok || v == "" {
			continue
		}
		plaintext, err := r.cipher.Decrypt(v)
		if err != nil {
			// Never log the ciphertext or key material here.
			r.logger.Error("get token: decrypt field failed, treating token as absent",
				"token_type", tokenType, "user_id", userID, "field", name)
			return nil, nil
		}
		fields[name] = plaintext
	}

	if cfg.Codec != nil {
		obj, err := cfg.Codec.Deserialize(fields)
		if err != nil {
			r.logger.Error("get token: deserialize failed",
				"token_type", tokenType, "user_id", userID, "error", err)
			return nil, nil
		}
		return obj, nil
	}

	return fields, nil
}

// Delete removes the token of the given type for userID and reports whether
// a row existed. Deleting an absent token is a no-op, not an error.
func (r *TokenRepo) Delete(ctx context.Context, tokenType, userID string) (bool, error) {
	cfg, err := r.types.Get(tokenType)
	if err != nil {
		return false, err
	}

	if err := r.ensureTable(ctx, tokenType, cfg); err != nil {
		r.logger.Error("delete token: ensure table failed",
			"token_type", tokenType, "user_id", userID, "error", err)
		return false, nil
	}

	res, err := r.db.Writer.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", cfg.Table), userID)
	if err != nil {
		r.logger.Error("delete token: write failed",
			"token_type", tokenType, "user_id", userID, "error", err)
		return false, nil
	}

	n, err := res.RowsAffected()
	if err != nil {
		r.logger.Error("delete token: rows affected",
			"token_type", tokenType, "user_id", userID, "error", err)
		return false, nil
	}
	return n > 0, nil
}

// flatten resolves the caller's input into a fresh flat field map, applying
// the codec when the type is structured and the caller passed its domain
// object rather than a map.
func (r *TokenRepo) flatten(cfg model.TokenTypeConfig, data any) (map[string]any, error) {
	if m, ok := data.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	}
	if cfg.Codec != nil {
		m, err := cfg.Codec.Serialize(data)
		if err != nil {
			return nil, fmt.Errorf("serialize: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("expected map[string]any, got %T", data)
}

// ensureTable creates the type's table on first touch. Built-in types already
// exist from migrations and hit the IF NOT EXISTS no-op; types registered at
// runtime get their table here, which is what lets a brand-new type work with
// no engine changes.
func (r *TokenRepo) ensureTable(ctx context.Context, tokenType string, cfg model.TokenTypeConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ensured[tokenType] {
		return nil
	}
	if _, err := r.db.Writer.ExecContext(ctx, createTableSQL(cfg)); err != nil {
		return fmt.Errorf("create table %s: %w", cfg.Table, err)
	}
	r.ensured[tokenType] = true
	return nil
}

// bindValue converts a field value from the flat map into its SQL binding.
// Absent fields bind NULL; upserts always replace the full row.
func bindValue(f model.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Kind {
	case model.FieldTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format(sqliteTimeFormat), nil
		case *time.Time:
			if t == nil {
				return nil, nil
			}
			return t.UTC().Format(sqliteTimeFormat), nil
		default:
			return nil, fmt.Errorf("expected time.Time, got %T", v)
		}
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	}
}

// scanValue converts a raw column back into the value callers see: string for
// string fields, time.Time for time fields, nil for NULL.
func scanValue(f model.Field, col sql.NullString) (any, error) {
	if !col.Valid {
		return nil, nil
	}
	if f.Kind == model.FieldTime {
		t, err := parseTime(col.String)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return col.String, nil
}

// parseTime handles the timestamp formats SQLite may hand back depending on
// how the value was written.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
