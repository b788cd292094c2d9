package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aguatrestorres/backoffice/internal/shared"
)

const tokenKeyPrefix = "3t:token:"

// Verifier turns a bearer credential into an identity. The Redis-backed
// TokenStore implements it; a managed auth provider could replace it
// without touching the middleware.
type Verifier interface {
	Verify(ctx context.Context, token string) (*shared.Identity, error)
}

// TokenStore keeps opaque bearer tokens in Redis with a TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a token for the identity and stores it with the TTL.
func (s *TokenStore) Issue(ctx context.Context, identity shared.Identity) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	payload, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("auth: marshal identity: %w", err)
	}
	if err := s.client.Set(ctx, tokenKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Verify resolves a token back to its identity and refreshes the TTL.
func (s *TokenStore) Verify(ctx context.Context, token string) (*shared.Identity, error) {
	if token == "" {
		return nil, shared.ErrInvalidToken
	}
	payload, err := s.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrInvalidToken
		}
		return nil, fmt.Errorf("auth: load token: %w", err)
	}
	var identity shared.Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return nil, fmt.Errorf("auth: unmarshal identity: %w", err)
	}
	// Sliding expiration keeps active sessions alive.
	_ = s.client.Expire(ctx, tokenKeyPrefix+token, s.ttl).Err()
	return &identity, nil
}

// Revoke deletes a token. Revoking an unknown token is a no-op.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, tokenKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

var _ Verifier = (*TokenStore)(nil)
