package model

// FieldKind identifies how a token field is represented in storage.
type FieldKind int

const (
	// FieldString is stored as a TEXT column. Encrypted fields must be strings.
	FieldString FieldKind = iota
	// FieldTime is stored as a TIMESTAMP column and surfaces as time.Time.
	FieldTime
)

// Field describes one named attribute of a token type.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// Codec converts between a domain object and the flat field map the storage
// engine persists. Serialize and Deserialize must both be set; a token type is
// either flat (callers pass field maps) or structured (callers pass the domain
// object), never a mix.
type Codec struct {
	Serialize   func(obj any) (map[string]any, error)
	Deserialize func(fields map[string]any) (any, error)
}

// TokenTypeConfig describes the shape of one credential type: which fields it
// carries, which of them must be opaque at rest, and an optional codec for
// non-flat domain objects. The storage engine derives the per-type table
// schema from this config and knows nothing else about the type.
type TokenTypeConfig struct {
	// Table is the SQLite table name for this type, e.g. "jira_tokens".
	Table string
	// Fields lists the type's attributes in declaration order.
	Fields []Field
	// EncryptedFields names the subset of Fields that are never stored as
	// plaintext. Must reference FieldString fields.
	EncryptedFields []string
	// Codec, when set, maps between a domain object and the flat field map.
	Codec *Codec
}

// HasField reports whether the config declares a field with the given name.
func (c TokenTypeConfig) HasField(name string) bool {
	for _, f := range c.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// FieldByName returns the declared field with the given name.
func (c TokenTypeConfig) FieldByName(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
