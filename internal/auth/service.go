package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidKey is returned when the provided API key does not match the configured hash.
var ErrInvalidKey = errors.New("invalid API key")

// keyPrefixLen is how much of a raw key is kept for logging.
const keyPrefixLen = 8

// Identity is stored in the request context after authentication.
type Identity struct {
	KeyPrefix string
}

// Service checks API keys against a single bcrypt hash.
type Service struct {
	keyHash    []byte
	bcryptCost int
}

// NewService creates a new auth Service. An empty keyHash disables
// authentication; see Enabled.
func NewService(keyHash string, bcryptCost int) *Service {
	return &Service{
		keyHash:    []byte(keyHash),
		bcryptCost: bcryptCost,
	}
}

// Enabled reports whether a key hash is configured.
func (s *Service) Enabled() bool {
	return len(s.keyHash) > 0
}

// GenerateKey creates a new API key and its bcrypt hash. The raw key is:
// 32 random bytes -> base64url -> prepend "roster_".
func (s *Service) GenerateKey() (rawKey, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = "roster_" + base64.RawURLEncoding.EncodeToString(b)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", fmt.Errorf("hashing key: %w", err)
	}

	return rawKey, string(hashBytes), nil
}

// Authenticate resolves a raw API key to an Identity.
func (s *Service) Authenticate(_ context.Context, rawKey string) (*Identity, error) {
	if !s.Enabled() || len(rawKey) < keyPrefixLen {
		return nil, ErrInvalidKey
	}

	err := bcrypt.CompareHashAndPassword(s.keyHash, []byte(rawKey))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidKey
		}
		return nil, fmt.Errorf("comparing key hash: %w", err)
	}

	return &Identity{KeyPrefix: rawKey[:keyPrefixLen]}, nil
}
