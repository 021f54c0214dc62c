package vaulttypes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/registry"
)

func TestRegisterBuiltins(t *testing.T) {
	r := registry.New()
	require.NoError(t, RegisterBuiltins(r))

	assert.Equal(t, []string{"jira", "github", "gdrive", "rhcp", "favorite_color"}, r.ListTypes())

	jira, err := r.Get("jira")
	require.NoError(t, err)
	assert.Equal(t, []string{"token"}, jira.EncryptedFields)
	assert.Nil(t, jira.Codec)

	gdrive, err := r.Get("gdrive")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"token", "refresh_token", "client_secret"}, gdrive.EncryptedFields)
	require.NotNil(t, gdrive.Codec)

	rhcp, err := r.Get("rhcp")
	require.NoError(t, err)
	assert.Equal(t, []string{"offline_token"}, rhcp.EncryptedFields)

	color, err := r.Get("favorite_color")
	require.NoError(t, err)
	assert.Empty(t, color.EncryptedFields)
}

func TestOAuthTokenCodec_RoundTrip(t *testing.T) {
	expiry := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	tok := &model.OAuthToken{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		TokenURI:     "https://oauth2.googleapis.com/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       []string{"scope-a", "scope-b"},
		Expiry:       &expiry,
	}

	fields, err := serializeOAuthToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access", fields["token"])
	assert.Equal(t, `["scope-a","scope-b"]`, fields["scopes"])
	assert.Equal(t, expiry, fields["expiry"])

	got, err := deserializeOAuthToken(fields)
	require.NoError(t, err)
	assert.Equal(t, tok, got)
}

func TestOAuthTokenCodec_AcceptsValueAndPointer(t *testing.T) {
	tok := model.OAuthToken{AccessToken: "a"}

	byValue, err := serializeOAuthToken(tok)
	require.NoError(t, err)
	byPointer, err := serializeOAuthToken(&tok)
	require.NoError(t, err)

	assert.Equal(t, byValue, byPointer)
}

func TestOAuthTokenCodec_EmptyOptionals(t *testing.T) {
	fields, err := serializeOAuthToken(&model.OAuthToken{AccessToken: "a"})
	require.NoError(t, err)
	_, hasScopes := fields["scopes"]
	assert.False(t, hasScopes)
	_, hasExpiry := fields["expiry"]
	assert.False(t, hasExpiry)

	got, err := deserializeOAuthToken(fields)
	require.NoError(t, err)

	tok := got.(*model.OAuthToken)
	assert.Empty(t, tok.Scopes)
	assert.Nil(t, tok.Expiry)
}

func TestOAuthTokenCodec_RejectsForeignTypes(t *testing.T) {
	_, err := serializeOAuthToken(42)
	assert.Error(t, err)
}
