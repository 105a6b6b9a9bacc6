package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

// SessionStore keeps web sessions in process memory. Expired entries are
// dropped lazily on Get.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.WebSession
	now      func() time.Time
}

var _ ports.WebSessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.WebSession), now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, sess domain.WebSession) error {
	if sess.ID == "" {
		return errors.New("session id cannot be empty")
	}
	if sess.Expired(s.now()) {
		return errors.New("session is expired")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domain.WebSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.WebSession{}, domain.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, id)
		return domain.WebSession{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
