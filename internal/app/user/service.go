package user

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/providers/redis"

	"go.uber.org/zap"
)

const userCacheTTL = 5 * time.Minute

type Service interface {
	GetByID(ctx context.Context, id uint64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

type service struct {
	repo   Repository
	redisP *redis.RedisProvider
	logger *zap.SugaredLogger
}

func NewService(repo Repository, redisP *redis.RedisProvider, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		redisP: redisP,
		logger: logger.Sugar(),
	}
}

// GetByID serves directory lookups. User records are immutable to this
// service, so cached reads never go stale in a way that matters.
func (s *service) GetByID(ctx context.Context, id uint64) (*User, error) {
	cacheKey := fmt.Sprintf("user:%d", id)

	if s.redisP != nil {
		cached, err := s.redisP.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var u User
			if json.Unmarshal([]byte(cached), &u) == nil {
				return &u, nil
			}
		}
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.redisP != nil {
		if data, err := json.Marshal(u); err == nil {
			s.redisP.SetEX(ctx, cacheKey, data, userCacheTTL)
		}
	}

	return u, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}
