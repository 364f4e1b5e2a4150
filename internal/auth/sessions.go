package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// SessionStore keeps bearer tokens in Redis with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a Redis backed session store.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create issues a new bearer token for the user.
func (s *SessionStore) Create(ctx context.Context, user *User) (string, error) {
	token := uuid.NewString()
	actor := shared.Actor{UserID: user.ID, Name: user.Name, Email: user.Email}
	payload, err := json.Marshal(actor)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKey(token), payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve looks up the actor behind a bearer token and extends its TTL.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*shared.Actor, error) {
	payload, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	var actor shared.Actor
	if err := json.Unmarshal(payload, &actor); err != nil {
		return nil, err
	}
	_ = s.client.Expire(ctx, sessionKey(token), s.ttl).Err()
	return &actor, nil
}

// Revoke deletes a bearer token.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}
