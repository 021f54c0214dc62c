package driven

import "context"

// TokenStore defines the driven port for encrypted, type-extensible token
// persistence. The adapter layer owns encryption, table management, and the
// fail-soft error policy; this interface operates on plaintext values at the
// domain boundary.
//
// All three operations return registry.ErrUnknownType for an unregistered
// token type; that is the only error they ever return. Routine storage and
// encryption failures are logged by the adapter and reported through the
// return values instead: writes and deletes report false, reads report the
// absent result (nil). A read that hits an undecryptable value also reports
// absent, indistinguishable from a token that was never stored; the row
// itself is left in place.
type TokenStore interface {
	// Upsert inserts or fully replaces the token of the given type for
	// userID. data is a map[string]any of declared fields, or the type's
	// domain object when a codec is configured. Fields omitted from the map
	// are cleared; there is no partial merge. Reports whether the write
	// succeeded.
	Upsert(ctx context.Context, tokenType, userID string, data any) (bool, error)

	// Get returns the stored token as a map[string]any (or the codec's
	// domain object), with encrypted fields decrypted. Returns (nil, nil)
	// when no token exists or when any encrypted field fails to decrypt.
	Get(ctx context.Context, tokenType, userID string) (any, error)

	// Delete removes the token if present and reports whether a row existed.
	Delete(ctx context.Context, tokenType, userID string) (bool, error)
}
