package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "dashboard:summary"

// Repository computes the summary from the database.
type Repository interface {
	BuildSummary(ctx context.Context, recentLimit int) (Summary, error)
}

// Service serves the dashboard summary from redis, collapsing concurrent
// rebuilds with singleflight so a cold cache triggers one query, not N.
type Service struct {
	repo        Repository
	cache       *redis.Client
	ttl         time.Duration
	recentLimit int
	logger      *slog.Logger
	group       singleflight.Group
}

// NewService constructs a new Service.
func NewService(repo Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:        repo,
		cache:       cache,
		ttl:         ttl,
		recentLimit: 10,
		logger:      logger,
	}
}

// Summary returns the cached summary, rebuilding it on a miss.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var summary Summary
			if err := json.Unmarshal([]byte(payload), &summary); err == nil {
				return summary, nil
			}
		} else if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.Warn("dashboard cache read failed", slog.Any("error", err))
		}
	}

	result := s.group.DoChan(cacheKey, func() (interface{}, error) {
		return s.rebuild(ctx)
	})
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return Summary{}, res.Err
		}
		return res.Val.(Summary), nil
	}
}

// Invalidate drops the cached summary so the next read rebuilds it.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil && s.logger != nil {
		s.logger.Warn("dashboard cache invalidate failed", slog.Any("error", err))
	}
}

func (s *Service) rebuild(ctx context.Context) (Summary, error) {
	summary, err := s.repo.BuildSummary(ctx, s.recentLimit)
	if err != nil {
		return Summary{}, err
	}
	summary.GeneratedAt = time.Now().UTC()

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil && s.logger != nil {
				s.logger.Warn("dashboard cache write failed", slog.Any("error", err))
			}
		}
	}
	return summary, nil
}
