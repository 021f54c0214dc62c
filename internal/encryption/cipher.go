// Package encryption protects token values at rest with AES-256-GCM.
//
// Ciphertexts are printable base64 strings safe for generic TEXT columns and
// carry their nonce and integrity tag inline, so a ciphertext is verifiable
// with nothing but the key. The key itself is held in a memguard enclave and
// only unsealed for the duration of a single encrypt or decrypt call.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
)

// EnvKey is the environment variable the key is resolved from when no
// explicit key is passed to New.
const EnvKey = "TOKENVAULT_ENCRYPTION_KEY"

const (
	// KeySize is the raw AES-256 key length in bytes.
	KeySize = 32
	// EncodedKeySize is the length of a base64-encoded key in characters.
	EncodedKeySize = 44
)

var (
	// ErrKeyMissing is returned by New when no key is resolvable. Fatal at
	// construction; the vault never starts without a key.
	ErrKeyMissing = errors.New(
		"encryption key not configured: set " + EnvKey + " or pass a key explicitly" +
			" (generate one with the tokenvault-keygen command)")

	// ErrInvalidKey is returned by New when the resolved key does not decode
	// to exactly KeySize bytes.
	ErrInvalidKey = fmt.Errorf(
		"invalid encryption key format: key must be %d bytes base64-encoded (%d characters)",
		KeySize, EncodedKeySize)

	// ErrDecrypt is returned by Decrypt for every failure mode. Wrong key,
	// corruption, and tampering are deliberately indistinguishable so the
	// error cannot be used as an oracle.
	ErrDecrypt = errors.New("cannot decrypt value: wrong key, corrupted data, or tampered data")
)

// Cipher encrypts and decrypts token values under a single symmetric key.
// It is immutable after construction and safe for concurrent use.
type Cipher struct {
	key *memguard.Enclave
}

// New resolves a key and returns a ready Cipher. An empty encodedKey falls
// back to the TOKENVAULT_ENCRYPTION_KEY environment variable. Returns
// ErrKeyMissing when neither is set and ErrInvalidKey when the key is not
// 32 bytes base64-encoded.
func New(encodedKey string) (*Cipher, error) {
	if encodedKey == "" {
		encodedKey = os.Getenv(EnvKey)
	}
	if encodedKey == "" {
		return nil, ErrKeyMissing
	}

	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(raw))
	}

	// NewEnclave wipes raw after sealing it.
	return &Cipher{key: memguard.NewEnclave(raw)}, nil
}

// Encrypt encrypts plaintext and returns base64(nonce || ciphertext || tag).
// A fresh random nonce is drawn per call, so two encryptions of the same
// plaintext never produce the same output.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	gcm, done, err := c.aead()
	if err != nil {
		return "", err
	}
	defer done()

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Every failure surfaces as ErrDecrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecrypt
	}

	gcm, done, err := c.aead()
	if err != nil {
		return "", err
	}
	defer done()

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrDecrypt
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}

// aead unseals the key enclave and builds the AES-GCM primitive. The returned
// cleanup wipes the unsealed key buffer; the AEAD stays valid because AES
// copies the key into its round-key schedule.
func (c *Cipher) aead() (cipher.AEAD, func(), error) {
	buf, err := c.key.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open key enclave: %w", err)
	}

	block, err := aes.NewCipher(buf.Bytes())
	if err != nil {
		buf.Destroy()
		return nil, nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		buf.Destroy()
		return nil, nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return gcm, buf.Destroy, nil
}

// GenerateKey returns fresh random key material, base64-encoded and ready for
// New or the TOKENVAULT_ENCRYPTION_KEY environment variable.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
