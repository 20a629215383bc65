package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

const cacheKey = "settings:pricing:snapshot"

// Service loads pricing snapshots with a short Redis cache in front of the
// database. Concurrent cold loads are coalesced through singleflight so a
// burst of pricing recomputations issues one query.
type Service struct {
	repo  Repository
	cache *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewService constructs a Service. cache may be nil; reads then always hit
// the repository.
func NewService(repo Repository, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl}
}

// Snapshot returns the current pricing parameters, with documented defaults
// for any key not yet configured.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var snap Snapshot
			if jsonErr := json.Unmarshal(raw, &snap); jsonErr == nil {
				return snap, nil
			}
		} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
			return Snapshot{}, ctx.Err()
		}
	}

	value, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		values, err := s.repo.GetAll(ctx)
		if err != nil {
			return Snapshot{}, fmt.Errorf("settings: load: %w", err)
		}
		snap := SnapshotFromMap(values)
		if s.cache != nil {
			if raw, err := json.Marshal(snap); err == nil {
				_ = s.cache.Set(ctx, cacheKey, raw, s.ttl).Err()
			}
		}
		return snap, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return value.(Snapshot), nil
}

// Update writes one pricing parameter and invalidates the cached snapshot.
func (s *Service) Update(ctx context.Context, key string, value float64, updatedBy int64) error {
	if !KnownKey(key) {
		return fmt.Errorf("%w: unknown setting key %q", shared.ErrValidation, key)
	}
	if value < 0 {
		return fmt.Errorf("%w: setting %q must be non-negative", shared.ErrValidation, key)
	}
	if err := s.repo.Upsert(ctx, key, value, updatedBy); err != nil {
		return fmt.Errorf("settings: upsert %s: %w", key, err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey).Err()
	}
	return nil
}

// List returns every stored setting merged over the defaults, so the admin
// surface always shows a complete parameter set.
func (s *Service) List(ctx context.Context) (Snapshot, error) {
	return s.Snapshot(ctx)
}
