package auth

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const apiKeyPrefix = "ak_live_"

// GenerateAPIKey returns a new raw API key and its bcrypt hash. The raw key
// is shown to the caller exactly once; only the hash is ever persisted.
func GenerateAPIKey() (key string, keyHash string, err error) {
	generateSecret, err := nanoid.CustomASCII("0123456789abcdef", 32)
	if err != nil {
		return "", "", fmt.Errorf("failed to initialize key generator: %w", err)
	}

	key = apiKeyPrefix + generateSecret()

	keyHash, err = HashPassword(key)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash API key: %w", err)
	}

	return key, keyHash, nil
}
