package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const (
	carInventoryCacheKey = "cars:inventory"
	carFacetsCacheKey    = "cars:facets"
	carSearchCachePrefix = "cars:search:"
	defaultCarCount      = 8
)

type carRepository interface {
	ListAll(ctx context.Context) ([]models.Car, error)
}

// CarCatalogService answers catalog queries over the car inventory.
type CarCatalogService struct {
	repo      carRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCarCatalogService constructs the catalog service. cache may be nil.
func NewCarCatalogService(repo carRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CarCatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CarCatalogService{repo: repo, cache: cache, validator: validate, logger: logger}
}

func (s *CarCatalogService) inventory(ctx context.Context) ([]models.Car, error) {
	var cars []models.Car
	if s.cache.Get(ctx, carInventoryCacheKey, &cars) {
		return cars, nil
	}
	cars, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cars")
	}
	s.cache.Set(ctx, carInventoryCacheKey, cars, 0)
	return cars, nil
}

// Search returns cars matching every non-empty filter field. Price is an inclusive upper
// bound and must be an integer.
func (s *CarCatalogService) Search(ctx context.Context, filter models.CarFilter) ([]models.Car, error) {
	var maxPrice int
	hasMax := filter.Price != ""
	if hasMax {
		parsed, err := strconv.Atoi(strings.TrimSpace(filter.Price))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("price %q is not a number", filter.Price))
		}
		maxPrice = parsed
	}

	key := carSearchCachePrefix + searchCacheKey(filter)
	var cached []models.Car
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	cars, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]models.Car, 0)
	for _, car := range cars {
		if filter.Year != "" && strconv.Itoa(car.Year) != filter.Year {
			continue
		}
		if !matchFold(filter.Style, car.Style) || !matchFold(filter.Make, car.Make) ||
			!matchFold(filter.Model, car.Model) || !matchFold(filter.Condition, car.Condition) {
			continue
		}
		if hasMax && car.Price > maxPrice {
			continue
		}
		result = append(result, car)
	}
	s.cache.Set(ctx, key, result, 0)
	return result, nil
}

// Facets lists the distinct values of every searchable attribute in first-seen order.
func (s *CarCatalogService) Facets(ctx context.Context) (*models.CarFacets, error) {
	var facets models.CarFacets
	if s.cache.Get(ctx, carFacetsCacheKey, &facets) {
		return &facets, nil
	}
	cars, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}

	makes, styles, conditions, modelNames := newOrderedSet[string](), newOrderedSet[string](), newOrderedSet[string](), newOrderedSet[string]()
	years, prices := newOrderedSet[int](), newOrderedSet[int]()
	for _, car := range cars {
		makes.add(car.Make)
		styles.add(car.Style)
		conditions.add(car.Condition)
		modelNames.add(car.Model)
		years.add(car.Year)
		prices.add(car.Price)
	}
	facets = models.CarFacets{
		Makes:      makes.items,
		Styles:     styles.items,
		Conditions: conditions.items,
		Models:     modelNames.items,
		Years:      years.items,
		Prices:     prices.items,
	}
	s.cache.Set(ctx, carFacetsCacheKey, facets, 0)
	return &facets, nil
}

// DependentFacets lists models and prices still reachable after make, style and condition
// are chosen. Empty selections match everything.
func (s *CarCatalogService) DependentFacets(ctx context.Context, query dto.DependentFacetsQuery) (*models.DependentFacets, error) {
	cars, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	modelNames, prices := newOrderedSet[string](), newOrderedSet[int]()
	for _, car := range cars {
		if !matchFold(query.Make, car.Make) || !matchFold(query.Style, car.Style) || !matchFold(query.Condition, car.Condition) {
			continue
		}
		modelNames.add(car.Model)
		prices.add(car.Price)
	}
	return &models.DependentFacets{Models: modelNames.items, Prices: prices.items}, nil
}

// Featured returns the first cars of the catalog.
func (s *CarCatalogService) Featured(ctx context.Context, query dto.CountQuery) ([]models.Car, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid count")
	}
	cars, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	return head(cars, countOrDefault(query.Count)), nil
}

// Newest returns cars ordered by year, newest first. Cars of the same year keep catalog order.
func (s *CarCatalogService) Newest(ctx context.Context, query dto.CountQuery) ([]models.Car, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid count")
	}
	cars, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	sorted := make([]models.Car, len(cars))
	copy(sorted, cars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year > sorted[j].Year })
	return head(sorted, countOrDefault(query.Count)), nil
}

// PriceForModel returns the price of the first car listed under model.
func (s *CarCatalogService) PriceForModel(ctx context.Context, query dto.ModelPriceQuery) (*dto.ModelPriceResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "model is required")
	}
	cars, err := s.inventory(ctx)
	if err != nil {
		return nil, err
	}
	for _, car := range cars {
		if car.Model == query.Model {
			return &dto.ModelPriceResponse{Model: car.Model, Price: car.Price}, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("model %s not found", query.Model))
}

// InvalidateCache drops cached catalog lookups. It runs at startup when the inventory comes
// from Postgres.
func (s *CarCatalogService) InvalidateCache(ctx context.Context) {
	s.cache.Invalidate(ctx, "cars:*")
}

func matchFold(want, have string) bool {
	return want == "" || strings.EqualFold(want, have)
}

func countOrDefault(count int) int {
	if count <= 0 {
		return defaultCarCount
	}
	return count
}

func head(cars []models.Car, n int) []models.Car {
	if n > len(cars) {
		n = len(cars)
	}
	out := make([]models.Car, n)
	copy(out, cars[:n])
	return out
}

func searchCacheKey(filter models.CarFilter) string {
	values := url.Values{}
	for k, v := range map[string]string{
		"year":      filter.Year,
		"style":     strings.ToLower(filter.Style),
		"make":      strings.ToLower(filter.Make),
		"model":     strings.ToLower(filter.Model),
		"condition": strings.ToLower(filter.Condition),
		"price":     strings.TrimSpace(filter.Price),
	} {
		if v != "" {
			values.Set(k, v)
		}
	}
	if len(values) == 0 {
		return "all"
	}
	return values.Encode()
}

type orderedSet[T comparable] struct {
	seen  map[T]struct{}
	items []T
}

func newOrderedSet[T comparable]() *orderedSet[T] {
	return &orderedSet[T]{seen: make(map[T]struct{}), items: make([]T, 0)}
}

func (s *orderedSet[T]) add(v T) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
