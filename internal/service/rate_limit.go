package service

import (
	"context"
	"time"

	"market_chat/internal/repository"
	"market_chat/pkg/logger"
)

type RateLimitService interface {
	Increment(ctx context.Context, key string, windowSeconds int) (int64, error)
	// Allow counts one event against a per-minute budget.
	Allow(ctx context.Context, key string, perMinute int) (bool, error)
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		log:           log,
	}
}

func (s *rateLimitService) Increment(ctx context.Context, key string, windowSeconds int) (int64, error) {
	return s.rateLimitRepo.Increment(ctx, key, time.Duration(windowSeconds)*time.Second)
}

func (s *rateLimitService) Allow(ctx context.Context, key string, perMinute int) (bool, error) {
	if perMinute <= 0 {
		return true, nil
	}
	count, err := s.rateLimitRepo.Increment(ctx, key, time.Minute)
	if err != nil {
		return false, err
	}
	return count <= int64(perMinute), nil
}
