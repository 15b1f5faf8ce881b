// Package crypto implements the at-rest encryption envelope for vault blobs
// and structured payloads.
//
// Layout: [salt (16)] [nonce (12)] [authTag (16)] [ciphertext (...)]
// AES-256-GCM with an scrypt-derived key. The salt is fresh per message, so
// the same plaintext never encrypts to the same bytes twice.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLen  = 16
	nonceLen = 12
	tagLen   = 16
	keyLen   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keyLen)
}

// Encrypt seals plaintext under the passphrase.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	// Seal appends ciphertext||tag; the envelope layout wants tag first.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ct, tag := sealed[:len(sealed)-tagLen], sealed[len(sealed)-tagLen:]

	out := make([]byte, 0, saltLen+nonceLen+tagLen+len(ct))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

// Decrypt opens an envelope produced by Encrypt. An authentication failure is
// returned as a hard error, never defaulted.
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	if len(data) < saltLen+nonceLen+tagLen {
		return nil, fmt.Errorf("malformed envelope: %d bytes", len(data))
	}

	salt := data[:saltLen]
	nonce := data[saltLen : saltLen+nonceLen]
	tag := data[saltLen+nonceLen : saltLen+nonceLen+tagLen]
	ct := data[saltLen+nonceLen+tagLen:]

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ct)+tagLen)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt envelope: %w", err)
	}
	return plaintext, nil
}

func newAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
