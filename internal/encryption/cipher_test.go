package encryption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()

	key, err := GenerateKey()
	require.NoError(t, err)

	c, err := New(key)
	require.NoError(t, err)
	return c
}

func TestGenerateKey_ProducesValidKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key, EncodedKeySize)

	_, err = New(key)
	assert.NoError(t, err)
}

func TestGenerateKey_ProducesUniqueKeys(t *testing.T) {
	key1, err := GenerateKey()
	require.NoError(t, err)
	key2, err := GenerateKey()
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2)
}

func TestNew_MissingKey(t *testing.T) {
	t.Setenv(EnvKey, "")

	_, err := New("")
	require.ErrorIs(t, err, ErrKeyMissing)
	assert.Contains(t, err.Error(), EnvKey)
	assert.Contains(t, err.Error(), "tokenvault-keygen")
}

func TestNew_KeyFromEnv(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	t.Setenv(EnvKey, key)

	c, err := New("")
	require.NoError(t, err)

	sealed, err := c.Encrypt("from-env")
	require.NoError(t, err)
	plaintext, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "from-env", plaintext)
}

func TestNew_ExplicitKeyOverridesEnv(t *testing.T) {
	envKey, err := GenerateKey()
	require.NoError(t, err)
	explicitKey, err := GenerateKey()
	require.NoError(t, err)
	t.Setenv(EnvKey, envKey)

	c, err := New(explicitKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("explicit")
	require.NoError(t, err)
	plaintext, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "explicit", plaintext)
}

func TestNew_InvalidKeyFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"not base64", "not-valid-base64!!!"},
		{"too short", "c2hvcnQ="},
		{"too long", strings.Repeat("QQ==", 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.key)
			require.ErrorIs(t, err, ErrInvalidKey)
			// Operators generating keys need the expected size spelled out.
			assert.Contains(t, err.Error(), "32 bytes")
			assert.Contains(t, err.Error(), "44 characters")
		})
	}
}

func TestEncrypt_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	plaintexts := []string{
		"my-secret-token",
		"",
		"token-with-émojis-🔐-and-中文",
		"github_pat_" + strings.Repeat("A", 82),
		"line1\nline2\ttab\x00null",
	}

	for _, plaintext := range plaintexts {
		sealed, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, sealed)
		assert.NotEmpty(t, sealed)

		got, err := c.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	c := newTestCipher(t)

	sealed1, err := c.Encrypt("my-secret-token")
	require.NoError(t, err)
	sealed2, err := c.Encrypt("my-secret-token")
	require.NoError(t, err)

	// Random nonce per call.
	assert.NotEqual(t, sealed1, sealed2)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Encrypt("my-secret-token")
	require.NoError(t, err)

	// Flip one character anywhere in the encoded text.
	for i := 0; i < len(sealed); i += 7 {
		mutated := []byte(sealed)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}

		_, err := c.Decrypt(string(mutated))
		assert.ErrorIs(t, err, ErrDecrypt, "mutation at index %d should fail", i)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	c1 := newTestCipher(t)
	c2 := newTestCipher(t)

	sealed, err := c1.Encrypt("my-secret-token")
	require.NoError(t, err)

	_, err = c2.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestDecrypt_Garbage(t *testing.T) {
	c := newTestCipher(t)

	for _, garbage := range []string{"", "x", "not base64 at all!!", "QQ==", strings.Repeat("Z", 200)} {
		_, err := c.Decrypt(garbage)
		assert.ErrorIs(t, err, ErrDecrypt, "input %q", garbage)
	}
}

func TestDecrypt_SingleFailureKind(t *testing.T) {
	// Wrong key, truncation, and tampering must be indistinguishable.
	c1 := newTestCipher(t)
	c2 := newTestCipher(t)

	sealed, err := c1.Encrypt("secret")
	require.NoError(t, err)

	_, wrongKeyErr := c2.Decrypt(sealed)
	_, truncatedErr := c1.Decrypt(sealed[:8])
	_, garbageErr := c1.Decrypt("garbage")

	assert.Equal(t, wrongKeyErr, truncatedErr)
	assert.Equal(t, wrongKeyErr, garbageErr)
}
