package cart

import (
	"context"
	"strings"
	"time"

	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/google/uuid"
)

const msgInvalidCartSession = "Invalid cart session."

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartSessionKey(sessionID string) string
}

// Sessions mints and checks anonymous cart session ids.
type Sessions struct {
	store sessionStore
	ttl   time.Duration
}

func NewSessions(store sessionStore, ttl time.Duration) *Sessions {
	return &Sessions{store: store, ttl: ttl}
}

// Mint registers a fresh session id.
func (s *Sessions) Mint(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.store.Set(ctx, s.store.CartSessionKey(id), time.Now().UTC().Format(time.RFC3339), s.ttl); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register cart session")
	}
	return id, nil
}

// Touch verifies the session id is known and extends its lifetime.
func (s *Sessions) Touch(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if _, err := uuid.Parse(sessionID); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCartSession)
	}
	key := s.store.CartSessionKey(sessionID)
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cart session")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCartSession)
	}
	if err := s.store.Expire(ctx, key, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "extend cart session")
	}
	return nil
}

func (s *Sessions) Forget(ctx context.Context, sessionID string) error {
	return s.store.Del(ctx, s.store.CartSessionKey(sessionID))
}
