package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher("passphrase")
	require.NoError(t, err)

	sealed, err := c.Seal("gh-token")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "gh-token")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "gh-token", plain)
}

func TestTokenCipher_WrongKey(t *testing.T) {
	a, err := NewTokenCipher("key-a")
	require.NoError(t, err)
	b, err := NewTokenCipher("key-b")
	require.NoError(t, err)

	sealed, err := a.Seal("gh-token")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.Error(t, err)

	_, err = a.Open([]byte("short"))
	assert.Error(t, err)
}

func TestTokenCipher_HexKey(t *testing.T) {
	hexKey := strings.Repeat("ab", 32)
	a, err := NewTokenCipher(hexKey)
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), a.key[0])

	sealed, err := a.Seal("x")
	require.NoError(t, err)

	b, err := NewTokenCipher(hexKey)
	require.NoError(t, err)
	plain, err := b.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "x", plain)

	_, err = NewTokenCipher("")
	assert.Error(t, err)
}
