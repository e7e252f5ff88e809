package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/session"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// SessionStore implements session.Store on Redis. Sessions survive bot
// restarts, so a teacher halfway through marking a class does not lose the
// toggles when the process is redeployed. Keys expire after TTLSession.
type SessionStore struct {
	cache *Cache
}

// NewSessionStore creates a SessionStore backed by the given cache.
func NewSessionStore(cache *Cache) *SessionStore {
	return &SessionStore{cache: cache}
}

func sessionKey(actorID int64) string {
	return fmt.Sprintf("%s%d", PrefixSession, actorID)
}

// Get returns the actor's session, or session.ErrNoActiveSession.
func (s *SessionStore) Get(ctx context.Context, actorID int64) (*session.Session, error) {
	var sess session.Session
	err := s.cache.Get(ctx, sessionKey(actorID), &sess)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, session.ErrNoActiveSession
		}
		return nil, fmt.Errorf("session store: %w", err)
	}
	return &sess, nil
}

// Put stores the session, refreshing its TTL.
func (s *SessionStore) Put(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return errors.New("session store: nil session")
	}
	if err := s.cache.Set(ctx, sessionKey(sess.ActorID), sess, TTLSession); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Delete removes the actor's session. Deleting a missing session is not an
// error.
func (s *SessionStore) Delete(ctx context.Context, actorID int64) error {
	if err := s.cache.Delete(ctx, sessionKey(actorID)); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}
