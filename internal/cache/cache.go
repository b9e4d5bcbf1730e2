package cache

import (
	"context"
	"time"

	"savn/backend/internal/domain"
)

type AnalyticsCache interface {
	Get(ctx context.Context, key string) (*domain.AnalyticsReport, bool, error)
	Set(ctx context.Context, key string, value *domain.AnalyticsReport, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type NoopAnalyticsCache struct{}

func (NoopAnalyticsCache) Get(_ context.Context, _ string) (*domain.AnalyticsReport, bool, error) {
	return nil, false, nil
}

func (NoopAnalyticsCache) Set(_ context.Context, _ string, _ *domain.AnalyticsReport, _ time.Duration) error {
	return nil
}

func (NoopAnalyticsCache) Delete(_ context.Context, _ string) error {
	return nil
}
