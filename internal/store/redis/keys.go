package redis

import "fmt"

const (
	// KeyPrefixArtifact is the prefix for mirrored artifact keys
	KeyPrefixArtifact = "profileqr:artifact:"
)

// ArtifactKey returns the Redis key for a cache key
func ArtifactKey(cacheKey string) string {
	return KeyPrefixArtifact + cacheKey
}

// ExtractCacheKey extracts the cache key from a Redis key
func ExtractCacheKey(key string) (string, error) {
	if len(key) <= len(KeyPrefixArtifact) || key[:len(KeyPrefixArtifact)] != KeyPrefixArtifact {
		return "", fmt.Errorf("invalid artifact key: %s", key)
	}
	return key[len(KeyPrefixArtifact):], nil
}
