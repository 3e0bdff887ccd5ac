package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/lu-zhengda/mailboard/internal/domain"
)

// Keys under which the session is persisted.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrKeyNotFound is returned by KV.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// KV is a small string key-value store. Implementations must treat deleting
// an absent key as success.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SessionStore persists the signed-in session as two entries: the bearer
// token and the JSON-encoded user profile.
type SessionStore struct {
	kv KV
}

// NewSessionStore returns a SessionStore backed by kv.
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// Load returns the stored session, or nil if either entry is missing.
// A corrupt user entry is discarded together with its token.
func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	token, err := s.kv.Get(ctx, KeyToken)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	raw, err := s.kv.Get(ctx, KeyUser)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Printf("[store] discarding unreadable stored user: %v", err)
		if clearErr := s.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}

	sess := &domain.Session{Token: token, User: &user}
	if !sess.Authenticated() {
		return nil, nil
	}
	return sess, nil
}

// Save writes both entries. If the user cannot be written the token is
// removed again so the store never holds half a session.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	if !sess.Authenticated() {
		return errors.New("failed to save session: token and user are required")
	}
	data, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.kv.Set(ctx, KeyToken, sess.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := s.kv.Set(ctx, KeyUser, string(data)); err != nil {
		_ = s.kv.Delete(ctx, KeyToken)
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Clear removes both entries.
func (s *SessionStore) Clear(ctx context.Context) error {
	var errs []error
	if err := s.kv.Delete(ctx, KeyToken); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete token: %w", err))
	}
	if err := s.kv.Delete(ctx, KeyUser); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete user: %w", err))
	}
	return errors.Join(errs...)
}
