// Package vaulttypes registers the credential types the platform ships with.
// Adding a type here (or registering one at runtime) is all it takes; the
// storage engine never changes.
package vaulttypes

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/registry"
)

// RegisterBuiltins registers the built-in token types: jira, github, gdrive,
// rhcp, and the unencrypted favorite_color demo type.
func RegisterBuiltins(r *registry.Registry) error {
	builtins := []struct {
		name string
		cfg  model.TokenTypeConfig
	}{
		{"jira", model.TokenTypeConfig{
			Table: "jira_tokens",
			Fields: []model.Field{
				{Name: "token", Kind: model.FieldString, Required: true},
				{Name: "server_url", Kind: model.FieldString, Required: true},
				{Name: "username", Kind: model.FieldString},
			},
			EncryptedFields: []string{"token"},
		}},
		{"github", model.TokenTypeConfig{
			Table: "github_tokens",
			Fields: []model.Field{
				{Name: "token", Kind: model.FieldString, Required: true},
				{Name: "server_url", Kind: model.FieldString, Required: true},
				{Name: "username", Kind: model.FieldString},
			},
			EncryptedFields: []string{"token"},
		}},
		{"gdrive", model.TokenTypeConfig{
			Table: "gdrive_tokens",
			Fields: []model.Field{
				{Name: "token", Kind: model.FieldString, Required: true},
				{Name: "refresh_token", Kind: model.FieldString},
				{Name: "token_uri", Kind: model.FieldString},
				{Name: "client_id", Kind: model.FieldString},
				{Name: "client_secret", Kind: model.FieldString},
				{Name: "scopes", Kind: model.FieldString},
				{Name: "expiry", Kind: model.FieldTime},
			},
			EncryptedFields: []string{"token", "refresh_token", "client_secret"},
			Codec: &model.Codec{
				Serialize:   serializeOAuthToken,
				Deserialize: deserializeOAuthToken,
			},
		}},
		{"rhcp", model.TokenTypeConfig{
			Table: "rhcp_tokens",
			Fields: []model.Field{
				{Name: "offline_token", Kind: model.FieldString, Required: true},
			},
			EncryptedFields: []string{"offline_token"},
		}},
		// Demo type with no encrypted fields; exercises the plain-text path.
		{"favorite_color", model.TokenTypeConfig{
			Table: "favorite_colors",
			Fields: []model.Field{
				{Name: "color", Kind: model.FieldString, Required: true},
			},
		}},
	}

	for _, b := range builtins {
		if err := r.Register(b.name, b.cfg); err != nil {
			return err
		}
	}
	return nil
}

// serializeOAuthToken flattens a model.OAuthToken into the gdrive field map.
// Scopes are stored as a JSON array in a TEXT column.
func serializeOAuthToken(obj any) (map[string]any, error) {
	var tok *model.OAuthToken
	switch v := obj.(type) {
	case *model.OAuthToken:
		tok = v
	case model.OAuthToken:
		tok = &v
	default:
		return nil, fmt.Errorf("expected model.OAuthToken, got %T", obj)
	}

	fields := map[string]any{
		"token":         tok.AccessToken,
		"refresh_token": tok.RefreshToken,
		"token_uri":     tok.TokenURI,
		"client_id":     tok.ClientID,
		"client_secret": tok.ClientSecret,
	}

	if len(tok.Scopes) > 0 {
		raw, err := json.Marshal(tok.Scopes)
		if err != nil {
			return nil, fmt.Errorf("marshal scopes: %w", err)
		}
		fields["scopes"] = string(raw)
	}
	if tok.Expiry != nil {
		fields["expiry"] = *tok.Expiry
	}

	return fields, nil
}

// deserializeOAuthToken rebuilds a *model.OAuthToken from the stored (and
// already decrypted) field map.
func deserializeOAuthToken(fields map[string]any) (any, error) {
	tok := &model.OAuthToken{}

	str := func(name string) string {
		s, _ := fields[name].(string)
		return s
	}
	tok.AccessToken = str("token")
	tok.RefreshToken = str("refresh_token")
	tok.TokenURI = str("token_uri")
	tok.ClientID = str("client_id")
	tok.ClientSecret = str("client_secret")

	if raw := str("scopes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tok.Scopes); err != nil {
			return nil, fmt.Errorf("unmarshal scopes: %w", err)
		}
	}
	if t, ok := fields["expiry"].(time.Time); ok {
		tok.Expiry = &t
	}

	return tok, nil
}
