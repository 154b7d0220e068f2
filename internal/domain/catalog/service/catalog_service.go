package service

import (
	"context"
	"errors"
	"time"

	"nepeats/internal/domain/catalog/model"
	"nepeats/internal/domain/catalog/repository"
	"nepeats/pkg/cache"
	"nepeats/pkg/logger"
	"nepeats/pkg/metrics"
	"nepeats/pkg/utils"

	"go.uber.org/zap"
)

const menuTTL = 5 * time.Minute

// MenuKey 菜单缓存键
func MenuKey(restaurantID string) string {
	return "menu:" + restaurantID
}

// CatalogService 店面浏览与审核
type CatalogService interface {
	ListRestaurants(ctx context.Context, page utils.Pagination) (*utils.PageResult, error)
	GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error)
	// Menu 餐厅可售菜品，读缓存
	Menu(ctx context.Context, restaurantID string) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	// InvalidateMenu 菜品或库存变化后调用
	InvalidateMenu(ctx context.Context, restaurantIDs ...string)

	ListForReview(ctx context.Context, approved *bool) ([]model.Restaurant, error)
	SetApproval(ctx context.Context, id string, approved bool) (*model.Restaurant, error)
}

type catalogService struct {
	restaurants repository.RestaurantRepository
	products    repository.ProductRepository
	cache       cache.CacheService
	metrics     *metrics.Collector
}

func NewCatalogService(restaurants repository.RestaurantRepository, products repository.ProductRepository, c cache.CacheService, m *metrics.Collector) CatalogService {
	return &catalogService{restaurants: restaurants, products: products, cache: c, metrics: m}
}

func (s *catalogService) ListRestaurants(ctx context.Context, page utils.Pagination) (*utils.PageResult, error) {
	offset, limit := page.GetPageOffset()
	list, total, err := s.restaurants.ListPublic(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{List: list, Total: total, Page: page.Page, Limit: limit}, nil
}

func (s *catalogService) GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	return s.restaurants.GetByID(ctx, id)
}

func (s *catalogService) Menu(ctx context.Context, restaurantID string) ([]model.Product, error) {
	key := MenuKey(restaurantID)

	var menu []model.Product
	err := s.cache.Get(ctx, key, &menu)
	if err == nil {
		s.metrics.RecordCache("menu", true)
		return menu, nil
	}
	s.metrics.RecordCache("menu", false)
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("Menu cache read failed", zap.String("restaurant_id", restaurantID), zap.Error(err))
	}

	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		return nil, err
	}
	menu, err = s.products.ListByRestaurant(ctx, restaurantID, true)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, menu, menuTTL); err != nil {
		logger.Log.Warn("Menu cache write failed", zap.String("restaurant_id", restaurantID), zap.Error(err))
	}
	return menu, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *catalogService) InvalidateMenu(ctx context.Context, restaurantIDs ...string) {
	keys := make([]string, len(restaurantIDs))
	for i, id := range restaurantIDs {
		keys[i] = MenuKey(id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Log.Warn("Menu cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *catalogService) ListForReview(ctx context.Context, approved *bool) ([]model.Restaurant, error) {
	return s.restaurants.ListAll(ctx, approved)
}

func (s *catalogService) SetApproval(ctx context.Context, id string, approved bool) (*model.Restaurant, error) {
	if err := s.restaurants.SetApproval(ctx, id, approved); err != nil {
		return nil, err
	}
	logger.Log.Info("Restaurant approval changed", zap.String("restaurant_id", id), zap.Bool("approved", approved))
	return s.restaurants.GetByID(ctx, id)
}
