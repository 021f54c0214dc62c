package sqlite

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// createTableSQL generates the DDL for a token type's table. Every table
// carries the same envelope: surrogate id, unique user_id, the declared
// fields, and the created_at/updated_at bookkeeping columns. Identifiers come
// from a validated TokenTypeConfig, never from request input.
func createTableSQL(cfg model.TokenTypeConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", cfg.Table)
	b.WriteString("\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n")
	b.WriteString("\tuser_id TEXT NOT NULL UNIQUE,\n")

	for _, f := range cfg.Fields {
		col := "TEXT"
		if f.Kind == model.FieldTime {
			col = "TIMESTAMP"
		}
		fmt.Fprintf(&b, "\t%s %s", f.Name, col)
		if f.Required {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}

	b.WriteString("\tcreated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,\n")
	b.WriteString("\tupdated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP\n")
	b.WriteString(")")

	return b.String()
}

// upsertSQL generates the atomic insert-or-replace statement for a token
// type. Every declared field is bound, so the write is always a full
// replacement; the conflict arm keeps created_at and bumps updated_at.
func upsertSQL(cfg model.TokenTypeConfig) string {
	cols := make([]string, 0, len(cfg.Fields))
	sets := make([]string, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		cols = append(cols, f.Name)
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", f.Name, f.Name))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (user_id, %s, created_at, updated_at)\n"+
			"VALUES (?%s, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)\n"+
			"ON CONFLICT(user_id) DO UPDATE SET\n\t%s,\n\tupdated_at = CURRENT_TIMESTAMP",
		cfg.Table,
		strings.Join(cols, ", "),
		strings.Repeat(", ?", len(cols)),
		strings.Join(sets, ",\n\t"),
	)
}

// selectSQL generates the single-row read for a token type.
func selectSQL(cfg model.TokenTypeConfig) string {
	cols := make([]string, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		cols = append(cols, f.Name)
	}
	return fmt.Sprintf("SELECT %s, created_at, updated_at FROM %s WHERE user_id = ?",
		strings.Join(cols, ", "), cfg.Table)
}
