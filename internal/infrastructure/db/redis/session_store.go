package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

// SessionStore keeps gateway web sessions as JSON with a TTL that ends at the
// session's ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ ports.WebSessionStore = (*SessionStore)(nil)

func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client, prefix: "websession:", now: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, sess domain.WebSession) error {
	if sess.ID == "" {
		return errors.New("session id cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.WebSession, error) {
	if id == "" {
		return domain.WebSession{}, domain.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.WebSession{}, domain.ErrSessionNotFound
		}
		return domain.WebSession{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domain.WebSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.WebSession{}, fmt.Errorf("unmarshal session: %w", err)
	}
	if sess.Expired(s.now()) {
		_ = s.client.Del(ctx, s.prefix+id).Err()
		return domain.WebSession{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
