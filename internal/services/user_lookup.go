package services

import (
	"context"
	"errors"
	"time"

	"task-manager/server/internal/cache"
	"task-manager/server/internal/models"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// UserLookup resolves an authenticated user id to an account.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// IdentityInvalidator drops cached identities after profile changes.
type IdentityInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

type cachedIdentity struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	ProfileImageURL string      `json:"profileImageUrl"`
	Role            models.Role `json:"role"`
}

// CachedUserLookup reads identities through Redis. Cache failures fall back
// to the database and trip the breaker instead of failing the request.
type CachedUserLookup struct {
	users   UserLookup
	cache   *cache.RedisCache
	breaker *cache.CircuitBreaker
	metrics *cache.CacheMetrics
	ttl     time.Duration
}

func NewCachedUserLookup(users UserLookup, redisCache *cache.RedisCache, ttl time.Duration) *CachedUserLookup {
	return &CachedUserLookup{
		users:   users,
		cache:   redisCache,
		breaker: cache.NewCircuitBreaker(nil),
		metrics: cache.NewCacheMetrics(),
		ttl:     ttl,
	}
}

func identityKey(id uuid.UUID) string {
	return "identity:" + id.String()
}

func (l *CachedUserLookup) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	key := identityKey(id)

	var hit cachedIdentity
	err := l.breaker.Execute(func() error { return l.cache.Get(ctx, key, &hit) })
	switch {
	case err == nil:
		l.metrics.RecordHit()
		return &models.User{
			ID:              hit.ID,
			Name:            hit.Name,
			Email:           hit.Email,
			ProfileImageURL: hit.ProfileImageURL,
			Role:            hit.Role,
		}, nil
	case errors.Is(err, cache.ErrCacheMiss):
		l.metrics.RecordMiss()
	default:
		l.metrics.RecordError()
		log.Warn().Err(err).Str("key", key).Msg("identity cache read failed")
	}

	user, err := l.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := cachedIdentity{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		ProfileImageURL: user.ProfileImageURL,
		Role:            user.Role,
	}
	if err := l.breaker.Execute(func() error { return l.cache.Set(ctx, key, entry, l.ttl) }); err != nil {
		l.metrics.RecordError()
		log.Warn().Err(err).Str("key", key).Msg("identity cache write failed")
	} else {
		l.metrics.RecordSet()
	}
	return user, nil
}

func (l *CachedUserLookup) Invalidate(ctx context.Context, id uuid.UUID) {
	err := l.breaker.Execute(func() error { return l.cache.Delete(ctx, identityKey(id)) })
	if err != nil {
		l.metrics.RecordError()
		log.Warn().Err(err).Str("user_id", id.String()).Msg("identity cache invalidation failed")
		return
	}
	l.metrics.RecordDelete()
}

func (l *CachedUserLookup) Stats() map[string]interface{} {
	return map[string]interface{}{
		"cache":   l.metrics.Snapshot(),
		"breaker": l.breaker.Stats(),
	}
}
