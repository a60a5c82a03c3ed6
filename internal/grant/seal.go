// Package grant persists finalized tool-authorization grants: the stable
// subject each grant is bound to, and the session's credential pair sealed
// with an authenticated cipher before it touches disk.
package grant

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/danecando/gdocs-mcp/internal/gauth"
)

// Sealer encrypts credential pairs at rest with XChaCha20-Poly1305.
// The 24-byte random nonce is prepended to the ciphertext, so each sealed
// blob is self-contained.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a Sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("grant: creating sealer: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts a credential pair into a self-contained blob.
func (s *Sealer) Seal(pair gauth.CredentialPair) ([]byte, error) {
	plaintext, err := json.Marshal(pair)
	if err != nil {
		return nil, fmt.Errorf("grant: encoding credentials: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("grant: generating nonce: %w", err)
	}

	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a sealed blob back into a credential pair. Fails on any
// tampering or on a blob sealed with a different key.
func (s *Sealer) Open(sealed []byte) (gauth.CredentialPair, error) {
	if len(sealed) < s.aead.NonceSize() {
		return gauth.CredentialPair{}, fmt.Errorf("grant: sealed credentials too short")
	}

	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return gauth.CredentialPair{}, fmt.Errorf("grant: opening sealed credentials: %w", err)
	}

	var pair gauth.CredentialPair
	if err := json.Unmarshal(plaintext, &pair); err != nil {
		return gauth.CredentialPair{}, fmt.Errorf("grant: decoding credentials: %w", err)
	}

	return pair, nil
}
