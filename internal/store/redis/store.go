package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultArtifactTTL is used when Store is called with ttl <= 0
	DefaultArtifactTTL = time.Hour
)

// Store is the shared artifact mirror. It satisfies cache.Mirror.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection, used by readiness probes
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Load retrieves a mirrored artifact. A missing key is reported as (zero, false, nil).
func (s *Store) Load(ctx context.Context, key string) (domain.Artifact, bool, error) {
	data, err := s.client.Get(ctx, ArtifactKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Artifact{}, false, nil
		}
		return domain.Artifact{}, false, fmt.Errorf("failed to get artifact: %w", err)
	}

	var a domain.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.Artifact{}, false, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	if !a.Format.Valid() || len(a.Data) == 0 {
		return domain.Artifact{}, false, fmt.Errorf("malformed artifact under %s", key)
	}

	return a, true, nil
}

// Store saves an artifact with the given TTL
func (s *Store) Store(ctx context.Context, key string, a domain.Artifact, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultArtifactTTL
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := s.client.Set(ctx, ArtifactKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// Delete removes a mirrored artifact
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, ArtifactKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// Count returns the number of mirrored artifacts
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixArtifact+"*", 0).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count artifacts: %w", err)
	}
	return n, nil
}

// Flush removes all mirrored artifacts
func (s *Store) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixArtifact+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete artifact key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush artifacts: %w", err)
	}
	return nil
}
