package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type mockCarRepo struct {
	cars  []models.Car
	err   error
	calls int
}

func (m *mockCarRepo) ListAll(ctx context.Context) ([]models.Car, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Car, len(m.cars))
	copy(out, m.cars)
	return out, nil
}

type memoryCacheRepo struct {
	items map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func sampleCars() []models.Car {
	return []models.Car{
		{ID: 1, Make: "BMW", Model: "M3", Year: 2015, Price: 40000, Style: "sedan", Condition: "used"},
		{ID: 2, Make: "Audi", Model: "Q7", Year: 2019, Price: 70000, Style: "suv", Condition: "new"},
		{ID: 3, Make: "BMW", Model: "X5", Year: 2019, Price: 65000, Style: "suv", Condition: "new"},
		{ID: 4, Make: "Kia", Model: "Rio", Year: 2017, Price: 15000, Style: "sedan", Condition: "used"},
		{ID: 5, Make: "bmw", Model: "M3", Year: 2018, Price: 52000, Style: "Sedan", Condition: "new"},
	}
}

func newCatalog(repo carRepository, cache *CacheService) *CarCatalogService {
	return NewCarCatalogService(repo, cache, nil, zap.NewNop())
}

func carIDs(cars []models.Car) []int {
	ids := make([]int, 0, len(cars))
	for _, c := range cars {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestCarCatalogSearch(t *testing.T) {
	svc := newCatalog(&mockCarRepo{cars: sampleCars()}, nil)
	ctx := context.Background()

	all, err := svc.Search(ctx, models.CarFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	bmw, err := svc.Search(ctx, models.CarFilter{Make: "BMW", Style: "SEDAN"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5}, carIDs(bmw))

	cheap, err := svc.Search(ctx, models.CarFilter{Price: "52000"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 5}, carIDs(cheap))

	negative, err := svc.Search(ctx, models.CarFilter{Price: "-1"})
	require.NoError(t, err)
	assert.Empty(t, negative)

	free, err := svc.Search(ctx, models.CarFilter{Price: "0"})
	require.NoError(t, err)
	assert.Empty(t, free)

	byYear, err := svc.Search(ctx, models.CarFilter{Year: "2019", Condition: "new"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, carIDs(byYear))

	none, err := svc.Search(ctx, models.CarFilter{Model: "Civic"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCarCatalogSearchRejectsBadPrice(t *testing.T) {
	svc := newCatalog(&mockCarRepo{cars: sampleCars()}, nil)

	_, err := svc.Search(context.Background(), models.CarFilter{Price: "cheap"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestCarCatalogFacets(t *testing.T) {
	svc := newCatalog(&mockCarRepo{cars: sampleCars()}, nil)

	facets, err := svc.Facets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BMW", "Audi", "Kia", "bmw"}, facets.Makes)
	assert.Equal(t, []string{"M3", "Q7", "X5", "Rio"}, facets.Models)
	assert.Equal(t, []int{2015, 2019, 2017, 2018}, facets.Years)
	assert.Equal(t, []string{"used", "new"}, facets.Conditions)
	assert.Len(t, facets.Prices, 5)
}

func TestCarCatalogDependentFacets(t *testing.T) {
	svc := newCatalog(&mockCarRepo{cars: sampleCars()}, nil)

	deps, err := svc.DependentFacets(context.Background(), dto.DependentFacetsQuery{Make: "bmw", Condition: "new"})
	require.NoError(t, err)
	assert.Equal(t, []string{"X5", "M3"}, deps.Models)
	assert.Equal(t, []int{65000, 52000}, deps.Prices)

	deps, err = svc.DependentFacets(context.Background(), dto.DependentFacetsQuery{})
	require.NoError(t, err)
	assert.Len(t, deps.Models, 4)
}

func TestCarCatalogFeaturedAndNewest(t *testing.T) {
	repo := &mockCarRepo{cars: sampleCars()}
	svc := newCatalog(repo, nil)
	ctx := context.Background()

	featured, err := svc.Featured(ctx, dto.CountQuery{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, carIDs(featured))

	featured, err = svc.Featured(ctx, dto.CountQuery{})
	require.NoError(t, err)
	assert.Len(t, featured, 5)

	newest, err := svc.Newest(ctx, dto.CountQuery{Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5}, carIDs(newest))

	all, err := svc.Search(ctx, models.CarFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, carIDs(all))

	_, err = svc.Newest(ctx, dto.CountQuery{Count: 500})
	assert.Error(t, err)
}

func TestCarCatalogPriceForModel(t *testing.T) {
	svc := newCatalog(&mockCarRepo{cars: sampleCars()}, nil)
	ctx := context.Background()

	price, err := svc.PriceForModel(ctx, dto.ModelPriceQuery{Model: "M3"})
	require.NoError(t, err)
	assert.Equal(t, 40000, price.Price)

	_, err = svc.PriceForModel(ctx, dto.ModelPriceQuery{Model: "m3"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestCarCatalogUsesCache(t *testing.T) {
	repo := &mockCarRepo{cars: sampleCars()}
	metrics := NewMetricsService()
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, metrics, time.Minute, zap.NewNop(), true)
	svc := newCatalog(repo, cache)
	ctx := context.Background()

	_, err := svc.Facets(ctx)
	require.NoError(t, err)
	_, err = svc.Facets(ctx)
	require.NoError(t, err)
	_, err = svc.Search(ctx, models.CarFilter{Make: "Kia"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Contains(t, cacheRepo.items, "cars:search:make=kia")

	svc.InvalidateCache(ctx)
	assert.Empty(t, cacheRepo.items)
	_, err = svc.Featured(ctx, dto.CountQuery{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)

	summary := metrics.Snapshot()
	assert.Greater(t, summary.CacheHits, uint64(0))
	assert.Greater(t, summary.CacheMisses, uint64(0))
}

func TestCarCatalogRepositoryFailure(t *testing.T) {
	svc := newCatalog(&mockCarRepo{err: errors.New("db down")}, nil)

	_, err := svc.Featured(context.Background(), dto.CountQuery{})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}
