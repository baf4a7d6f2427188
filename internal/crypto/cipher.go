package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// NonceSize is the AES-GCM nonce size in bytes
	NonceSize = 12
)

// EncryptValue encrypts a variable value with AES-256-GCM using a fresh
// random nonce per call. The stored form is "nonceHex:cipherHex" where
// cipherHex carries the ciphertext plus the GCM authentication tag.
// An empty plaintext is legal: env variables may hold empty values.
func EncryptValue(plaintext string, key []byte) (string, error) {
	if len(key) != KeyLen {
		return "", fmt.Errorf("encryption key must be %d bytes, got %d", KeyLen, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aesGCM.Seal(nil, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptValue reverses EncryptValue. Any malformed input or key
// mismatch returns an error; callers decide whether that is fatal.
func DecryptValue(encoded string, key []byte) (string, error) {
	if len(key) != KeyLen {
		return "", fmt.Errorf("encryption key must be %d bytes, got %d", KeyLen, len(key))
	}

	nonceHex, cipherHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return "", fmt.Errorf("invalid ciphertext format: missing nonce separator")
	}
	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode nonce: %w", err)
	}
	if len(nonce) != NonceSize {
		return "", fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: authentication failed or corrupted data: %w", err)
	}

	return string(plaintext), nil
}

// GenerateToken returns a cryptographically random hex string of
// exactly length characters. Used for auto-configured variable values.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive")
	}
	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}
