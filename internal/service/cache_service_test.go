package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
)

type memoryCacheRepo struct {
	items   map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	var out dto.PlanStatistics
	hit, err := svc.Get(ctx, statisticsKey("p1"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, statisticsKey("p1"), dto.PlanStatistics{PlanID: "p1", PlanName: "TRF"}, 0))
	assert.Equal(t, time.Minute, repo.ttls[statisticsKey("p1")])

	hit, err = svc.Get(ctx, statisticsKey("p1"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "TRF", out.PlanName)
}

func TestCacheServiceInvalidateStatistics(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, statisticsKey("a"), 1, time.Second))
	require.NoError(t, svc.Set(ctx, statisticsKey("b"), 2, time.Second))
	require.NoError(t, svc.Set(ctx, "other", 3, time.Second))

	svc.InvalidateStatistics(ctx)

	assert.ElementsMatch(t, []string{statisticsKey("a"), statisticsKey("b")}, repo.deleted)
	assert.Contains(t, repo.items, "other")
}

func TestCacheServiceBackendErrorSurfaces(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, 0, nil, true)

	var out int
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.False(t, hit)
	assert.EqualError(t, err, "connection refused")
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newMemoryCacheRepo()
	ctx := context.Background()

	for name, svc := range map[string]*CacheService{
		"disabled": NewCacheService(repo, nil, 0, nil, false),
		"nil":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, svc.Set(ctx, "k", 1, 0))
			var out int
			hit, err := svc.Get(ctx, "k", &out)
			require.NoError(t, err)
			assert.False(t, hit)
			svc.InvalidateStatistics(ctx)
			assert.False(t, svc.Enabled())
		})
	}
	assert.Empty(t, repo.items)
}
