package security

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestNewCryptorRejectsBadKeySize(t *testing.T) {
	t.Parallel()

	_, err := NewCryptor([]byte("short"))
	require.Error(t, err)
}

func TestCryptorRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := NewCryptor(testKey())
	require.NoError(t, err)

	for _, plain := range []string{"", "sk-abc123", "clé très secrète"} {
		ct, err := c.Encrypt(plain)
		require.NoError(t, err)

		got, err := c.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	t.Parallel()

	c, err := NewCryptor(testKey())
	require.NoError(t, err)

	a, err := c.Encrypt("sk-abc123")
	require.NoError(t, err)
	b, err := c.Encrypt("sk-abc123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptFailsClosedOnTamper(t *testing.T) {
	t.Parallel()

	c, err := NewCryptor(testKey())
	require.NoError(t, err)

	ct, err := c.Encrypt("sk-abc123")
	require.NoError(t, err)

	blob, err := base64.StdEncoding.DecodeString(ct)
	require.NoError(t, err)

	// Flip one bit inside the tag region (bytes 12..27).
	blob[12] ^= 0x01
	_, err = c.Decrypt(base64.StdEncoding.EncodeToString(blob))
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestDecryptRejectsMalformedPayloads(t *testing.T) {
	t.Parallel()

	c, err := NewCryptor(testKey())
	require.NoError(t, err)

	for _, payload := range []string{
		"not-base64!!!",
		base64.StdEncoding.EncodeToString([]byte("too short")),
		"",
	} {
		_, err := c.Decrypt(payload)
		assert.ErrorIs(t, err, ErrDecrypt, "payload %q", payload)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	t.Parallel()

	c1, err := NewCryptor(testKey())
	require.NoError(t, err)
	c2, err := NewCryptor(bytes.Repeat([]byte{0x24}, 32))
	require.NoError(t, err)

	ct, err := c1.Encrypt("sk-abc123")
	require.NoError(t, err)

	_, err = c2.Decrypt(ct)
	assert.ErrorIs(t, err, ErrDecrypt)
}
