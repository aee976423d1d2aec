package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/logger"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

const defaultCacheSize = 1024

// Service validates session proofs presented on requests. Issuing
// sessions is an external concern; this only answers "is this (user,
// proof) pair currently valid".
type Service interface {
	Validate(ctx context.Context, userID uuid.UUID, proof string) error
}

type service struct {
	repo  repository.Sessions
	cache *sessionCache
}

// NewService creates a session validator backed by the given store, with
// an in-memory cache holding validated proofs for ttl.
func NewService(repo repository.Sessions, ttl time.Duration) Service {
	return &service{
		repo:  repo,
		cache: newSessionCache(defaultCacheSize, ttl),
	}
}

// Validate checks the proof against the cache, then the store. Unknown or
// expired sessions fail with domain.ErrUnauthorized.
func (s *service) Validate(ctx context.Context, userID uuid.UUID, proof string) error {
	if proof == "" {
		return fmt.Errorf("%w: missing session proof", domain.ErrUnauthorized)
	}

	key := userID.String() + ":" + proof
	if _, ok := s.cache.Get(key); ok {
		return nil
	}

	sess, err := s.repo.GetSession(ctx, userID, proof)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}
	if sess == nil {
		return fmt.Errorf("%w: unknown session", domain.ErrUnauthorized)
	}
	if time.Now().After(sess.Expires) {
		logger.FromContext(ctx).Debug("Rejected expired session", "user_id", userID)
		return fmt.Errorf("%w: session expired", domain.ErrUnauthorized)
	}

	s.cache.Set(key, sess)
	return nil
}
