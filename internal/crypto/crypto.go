// Package crypto seals cached payloads with a key derived from the
// application secret.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 100000
	keySize    = 32 // AES-256
)

// ErrCiphertextTooShort is returned by Open for input shorter than a nonce
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Encryptor seals and opens payloads using AES-GCM
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor derives a key from the given secret.
// It returns nil when the secret is empty.
func NewEncryptor(secret string) (*Encryptor, error) {
	if secret == "" {
		return nil, nil
	}

	// The salt is derived from the secret so every process sharing the
	// secret derives the same key without storing extra state
	salt := sha256.Sum256([]byte(secret + "fixtures-ics-salt"))
	key := pbkdf2.Key([]byte(secret), salt[:], iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Encryptor{aead: aead}, nil
}

// Seal encrypts plaintext, prefixing the random nonce
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a payload produced by Seal.
// Tampered input or a payload sealed under another secret fails.
func (e *Encryptor) Open(ciphertext []byte) ([]byte, error) {
	nonceSize := e.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrCiphertextTooShort
	}

	nonce, data := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return e.aead.Open(nil, nonce, data, nil)
}
