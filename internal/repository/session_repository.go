package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

// SessionRepository keeps session payloads in Redis keyed by session id.
type SessionRepository struct {
	client redis.Cmdable
	prefix string
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client redis.Cmdable, prefix string) *SessionRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &SessionRepository{client: client, prefix: prefix}
}

func (r *SessionRepository) key(id string) string {
	return r.prefix + id
}

// Get loads a session. A missing or expired session yields appErrors.ErrCacheMiss.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.SessionData, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}
	var data models.SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &data, nil
}

// Save writes the session with the given TTL.
func (r *SessionRepository) Save(ctx context.Context, data *models.SessionData, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", data.ID, err)
	}
	if err := r.client.Set(ctx, r.key(data.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", data.ID, err)
	}
	return nil
}

// Delete removes the session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", id, err)
	}
	return nil
}
