package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordHasher handles password hashing using Argon2id
type PasswordHasher struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// NewPasswordHasher creates a new password hasher with Argon2id
func NewPasswordHasher(memory, iterations uint32, parallelism uint8, saltLength, keyLength uint32) *PasswordHasher {
	return &PasswordHasher{
		memory:      memory,
		iterations:  iterations,
		parallelism: parallelism,
		saltLength:  saltLength,
		keyLength:   keyLength,
	}
}

// Hash hashes a password using Argon2id. The encoded form is
// $argon2id$v=19$m=...,t=...,p=...$salt$hash with raw base64.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		h.iterations,
		h.memory,
		h.parallelism,
		h.keyLength,
	)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory,
		h.iterations,
		h.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify verifies a password against an encoded hash. The parameters
// embedded in the hash are used, so parameter upgrades never break
// existing credentials.
func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	sections := strings.Split(strings.TrimPrefix(encodedHash, "$"), "$")
	if len(sections) != 5 || sections[0] != "argon2id" {
		return false, fmt.Errorf("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(sections[1], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid hash version: %w", err)
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(sections[2], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("invalid hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(sections[3])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(sections[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	actual := argon2.IDKey(
		[]byte(password),
		salt,
		iterations,
		memory,
		parallelism,
		uint32(len(expected)),
	)

	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}
