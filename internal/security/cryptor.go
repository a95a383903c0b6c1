package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecrypt is returned for any ciphertext that fails authentication or is
// structurally malformed. It signals data corruption or a key mismatch, not
// bad user input, and must surface as an internal failure.
var ErrDecrypt = errors.New("security: decryption failed")

// Cryptor seals and opens at-rest secrets with AES-256-GCM. The wire layout
// is nonce||tag||cipherbytes, base64-encoded, so ciphertexts written by the
// previous generation of the service remain readable.
type Cryptor struct {
	aead cipher.AEAD
}

// NewCryptor builds a Cryptor from a 32-byte key.
func NewCryptor(key []byte) (*Cryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("security: encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cryptor{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. Encrypting the same
// input twice yields different ciphertexts.
func (c *Cryptor) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plain), nil)
	// Seal appends the tag after the cipherbytes; the stored layout keeps
	// the tag between nonce and cipherbytes.
	split := len(sealed) - c.aead.Overhead()
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed[split:]...)
	out = append(out, sealed[:split]...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a payload produced by Encrypt. It fails closed: on any tag
// mismatch or malformed input it returns ErrDecrypt and no plaintext.
func (c *Cryptor) Decrypt(payload string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrDecrypt
	}
	nonceSize := c.aead.NonceSize()
	tagSize := c.aead.Overhead()
	if len(blob) < nonceSize+tagSize {
		return "", ErrDecrypt
	}
	nonce := blob[:nonceSize]
	tag := blob[nonceSize : nonceSize+tagSize]
	data := blob[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(data)+len(tag))
	sealed = append(sealed, data...)
	sealed = append(sealed, tag...)

	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
