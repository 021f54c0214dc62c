// Package log provides the vault's slog plumbing. Every logger built here
// wraps a RedactingHandler so secret material can never reach a log line,
// even from a mistaken call site.
package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

var sensitiveFields = map[string]struct{}{
	"token":         {},
	"refresh_token": {},
	"client_secret": {},
	"offline_token": {},
	"api_key":       {},
	"api_secret":    {},
	"secret":        {},
	"password":      {},
	"key":           {},
	"value":         {},
	"plaintext":     {},
	"ciphertext":    {},
}

// RedactingHandler wraps another slog.Handler and replaces the values of
// sensitive attribute keys with a fixed marker.
type RedactingHandler struct {
	inner slog.Handler
}

// NewRedactingHandler wraps inner with attribute redaction.
func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

// NewLogger returns a text logger writing to w at the given level, with
// redaction applied.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewRedactingHandler(
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	redacted := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		redacted.AddAttrs(redactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, redacted)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		redacted = append(redacted, redactAttr(attr))
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(attr slog.Attr) slog.Attr {
	key := strings.ToLower(attr.Key)
	if _, ok := sensitiveFields[key]; ok {
		return slog.String(attr.Key, "[REDACTED]")
	}

	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		redacted := make([]slog.Attr, 0, len(group))
		for _, nested := range group {
			redacted = append(redacted, redactAttr(nested))
		}
		return slog.Attr{
			Key:   attr.Key,
			Value: slog.GroupValue(redacted...),
		}
	}

	return attr
}
