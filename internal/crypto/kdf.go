package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. The iteration count is deliberately high: the
// master password is entered once per session, so the derivation cost
// is paid rarely but makes offline guessing expensive.
const (
	// Iterations is the PBKDF2 time cost
	Iterations = 100_000
	// KeyLen is the length of the derived encryption key in bytes (AES-256)
	KeyLen = 32
	// HashLen is the length of the password verification hash in bytes
	HashLen = 64
	// SaltSize is the size of the random salt in bytes
	SaltSize = 16
)

// GenerateSalt generates a cryptographically random salt of SaltSize bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateSaltHex generates a random salt and returns it hex-encoded,
// the form it is persisted in.
func GenerateSaltHex() (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(salt), nil
}

// HashPassword derives the password verification hash via PBKDF2-SHA512.
// The hash is safe to persist; it cannot be used as the encryption key.
func HashPassword(password, saltHex string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode salt: %w", err)
	}
	hash := pbkdf2.Key([]byte(password), salt, Iterations, HashLen, sha512.New)
	return hex.EncodeToString(hash), nil
}

// VerifyPassword checks a password against a stored verification hash
// using a constant-time comparison.
func VerifyPassword(password, saltHex, hashHex string) error {
	computed, err := HashPassword(password, saltHex)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(computed), []byte(hashHex)) {
		return fmt.Errorf("invalid password")
	}
	return nil
}

// DeriveKey derives the symmetric encryption key from the master
// password via PBKDF2-SHA256. A distinct context string keeps the key
// independent from the verification hash even though both share the
// password and salt.
func DeriveKey(password, saltHex string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	input := append([]byte(password), []byte("encrypt")...)
	return pbkdf2.Key(input, salt, Iterations, KeyLen, sha256.New), nil
}
