package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidEncryptionKey is returned when the field key is not 32 bytes.
var ErrInvalidEncryptionKey = errors.New("invalid field encryption key")

// FieldCipher encrypts individual PII values with XChaCha20-Poly1305.
//
// Ciphertexts are URL-safe base64 of nonce || sealed box, so they can be
// stored as opaque text and decrypted without any side data.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher builds a cipher from a decoded 32-byte key.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidEncryptionKey
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncryptionKey, err)
	}
	return &FieldCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. ok is false when the value is
// malformed, truncated, tampered with, or sealed under a different key.
func (c *FieldCipher) Decrypt(ciphertext string) (plaintext string, ok bool) {
	raw, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", false
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", false
	}
	opened, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", false
	}
	return string(opened), true
}

// DecryptPtr is Decrypt for optional response fields: nil when unavailable.
func (c *FieldCipher) DecryptPtr(ciphertext string) *string {
	plaintext, ok := c.Decrypt(ciphertext)
	if !ok {
		return nil
	}
	return &plaintext
}
