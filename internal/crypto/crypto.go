// Package crypto seals reddit refresh tokens before they reach the
// database. Tokens are stored as hex(nonce || AES-GCM sealed bytes), so
// a leaked dump exposes no usable credentials.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

type Service interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// NoopService stores tokens as-is. Only wired when no encryption key is
// configured, which the config layer restricts to non-production envs.
type NoopService struct{}

func (NoopService) Encrypt(plaintext string) (string, error)  { return plaintext, nil }
func (NoopService) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

// AesGcmService seals and opens tokens with a single long-lived key.
// The nonce is drawn fresh per call and prepended to the sealed bytes.
type AesGcmService struct {
	gcm cipher.AEAD
}

func NewAesGcmService(hexKey string) (*AesGcmService, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("building aes cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("building gcm mode: %w", err)
	}

	return &AesGcmService{gcm: gcm}, nil
}

func (s *AesGcmService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("drawing nonce: %w", err)
	}

	sealed := s.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

func (s *AesGcmService) Decrypt(ciphertext string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding stored token: %w", err)
	}
	if len(raw) < s.gcm.NonceSize() {
		return "", errors.New("stored token too short to hold a nonce")
	}

	nonce, sealed := raw[:s.gcm.NonceSize()], raw[s.gcm.NonceSize():]
	plaintext, err := s.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("opening stored token: %w", err)
	}

	return string(plaintext), nil
}
