package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errTokenCipher = errors.New("cannot decrypt linked identity token")

// TokenCipher 使用 NaCl secretbox 加密外部访问令牌
type TokenCipher struct {
	key [32]byte
}

// NewTokenCipher key 为 64 位 hex（32 字节）；其他字符串经 SHA-256 派生
func NewTokenCipher(secret string) (*TokenCipher, error) {
	if secret == "" {
		return nil, errors.New("identity token key is required")
	}

	var c TokenCipher
	if raw, err := hex.DecodeString(secret); err == nil && len(raw) == 32 {
		copy(c.key[:], raw)
		return &c, nil
	}
	c.key = sha256.Sum256([]byte(secret))
	return &c, nil
}

func (c *TokenCipher) Seal(plaintext string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key), nil
}

func (c *TokenCipher) Open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", errTokenCipher
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", errTokenCipher
	}
	return string(plain), nil
}
