// Package registry maps token type names to their configurations, so new
// credential types can be added without touching the storage engine.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// ErrUnknownType is returned by Get for names that were never registered.
// It signals missing registration (a deployment bug), not a routine failure,
// and is always propagated to the caller.
var ErrUnknownType = errors.New("unknown token type")

// identPattern constrains type, table, and field names to safe SQL
// identifiers, since they are interpolated into generated DDL and queries.
var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Registry is an in-memory, registration-ordered mapping from token type name
// to TokenTypeConfig. Mutation is guarded by a single coarse lock; steady-state
// traffic is read-only.
type Registry struct {
	mu    sync.RWMutex
	types map[string]model.TokenTypeConfig
	order []string
}

// New returns an empty registry. Tests construct isolated instances instead
// of sharing process-wide state.
func New() *Registry {
	return &Registry{types: make(map[string]model.TokenTypeConfig)}
}

// Register inserts or overwrites the configuration for name. Last write wins;
// re-registering keeps the original position in ListTypes. The config is
// validated up front so a bad registration fails loudly at startup rather
// than corrupting writes later.
func (r *Registry) Register(name string, cfg model.TokenTypeConfig) error {
	if err := validate(name, cfg); err != nil {
		return fmt.Errorf("register token type %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; !exists {
		r.order = append(r.order, name)
	}
	r.types[name] = cfg
	return nil
}

// Get returns the configuration for name. The ErrUnknownType message
// enumerates every registered type to make typos and missing registrations
// easy to spot in logs.
func (r *Registry) Get(name string) (model.TokenTypeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.types[name]
	if !ok {
		registered := "(none)"
		if len(r.order) > 0 {
			registered = strings.Join(r.order, ", ")
		}
		return model.TokenTypeConfig{}, fmt.Errorf("%w %q: registered types: %s",
			ErrUnknownType, name, registered)
	}
	return cfg, nil
}

// IsRegistered reports whether name has a configuration. Never errors.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.types[name]
	return ok
}

// ListTypes returns all registered type names in registration order.
func (r *Registry) ListTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func validate(name string, cfg model.TokenTypeConfig) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("type name must match %s", identPattern)
	}
	if !identPattern.MatchString(cfg.Table) {
		return fmt.Errorf("table name %q must match %s", cfg.Table, identPattern)
	}
	if len(cfg.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	for _, f := range cfg.Fields {
		if !identPattern.MatchString(f.Name) {
			return fmt.Errorf("field name %q must match %s", f.Name, identPattern)
		}
		switch f.Name {
		case "id", "user_id", "created_at", "updated_at":
			return fmt.Errorf("field name %q collides with a reserved column", f.Name)
		}
	}

	for _, name := range cfg.EncryptedFields {
		f, ok := cfg.FieldByName(name)
		if !ok {
			return fmt.Errorf("encrypted field %q is not a declared field", name)
		}
		if f.Kind != model.FieldString {
			return fmt.Errorf("encrypted field %q must be a string field", name)
		}
	}

	if cfg.Codec != nil && (cfg.Codec.Serialize == nil || cfg.Codec.Deserialize == nil) {
		return errors.New("codec must set both Serialize and Deserialize")
	}

	return nil
}
