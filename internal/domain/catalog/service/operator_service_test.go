package service

import (
	"context"
	"testing"
	"time"

	"nepeats/internal/domain/catalog/model"
	"nepeats/pkg/cache"
	"nepeats/pkg/errs"
	"nepeats/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupOperator() (OperatorService, *MockRestaurantRepository, *MockProductRepository, cache.CacheService) {
	rests := new(MockRestaurantRepository)
	products := new(MockProductRepository)
	c := cache.NewMemoryCache()
	catalog := NewCatalogService(rests, products, c, metrics.NewCollector(prometheus.NewRegistry()))
	return NewOperatorService(rests, products, catalog), rests, products, c
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int        { return &i }

func TestRestaurantCreatedOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	svc, rests, _, _ := setupOperator()

	rests.On("GetByUserID", ctx, "op1").Return(nil, errs.ErrNotFound).Once()
	rests.On("Create", ctx, mock.MatchedBy(func(r *model.Restaurant) bool {
		return r.UserID == "op1" && r.Name == "Ram's Kitchen" && r.IsActive && !r.IsApproved
	})).Return(nil)

	r, err := svc.Restaurant(ctx, "op1", "Ram's Kitchen")

	require.NoError(t, err)
	assert.Equal(t, 27.7172, *r.Address.Lat)
	rests.AssertExpectations(t)
}

func TestRestaurantConcurrentFirstAccess(t *testing.T) {
	ctx := context.Background()
	svc, rests, _, _ := setupOperator()

	rests.On("GetByUserID", ctx, "op1").Return(nil, errs.ErrNotFound).Once()
	rests.On("Create", ctx, mock.Anything).Return(errs.ErrConflict)
	rests.On("GetByUserID", ctx, "op1").Return(restaurant("r1", "op1"), nil).Once()

	r, err := svc.Restaurant(ctx, "op1", "")

	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Keeps in_stock consistent and invalidates the menu", func(t *testing.T) {
		svc, rests, products, c := setupOperator()
		require.NoError(t, c.Set(ctx, MenuKey("r1"), []model.Product{}, time.Minute))

		price := decimal.RequireFromString("180.456")
		rests.On("GetByUserID", ctx, "op1").Return(restaurant("r1", "op1"), nil)
		products.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)

		p, err := svc.CreateProduct(ctx, "op1", ProductInput{Name: strPtr("Veg Chowmein"), Price: &price, Stock: intPtr(0)})

		require.NoError(t, err)
		assert.False(t, p.InStock)
		assert.True(t, p.IsAvailable)
		assert.Equal(t, "180.46", p.Price.StringFixed(2))

		var cached []model.Product
		assert.ErrorIs(t, c.Get(ctx, MenuKey("r1"), &cached), cache.ErrCacheMiss)
	})

	t.Run("Missing price", func(t *testing.T) {
		svc, rests, _, _ := setupOperator()
		rests.On("GetByUserID", ctx, "op1").Return(restaurant("r1", "op1"), nil)

		_, err := svc.CreateProduct(ctx, "op1", ProductInput{Name: strPtr("Veg Chowmein")})
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})

	t.Run("Negative stock", func(t *testing.T) {
		svc, rests, _, _ := setupOperator()
		price := decimal.NewFromInt(100)
		rests.On("GetByUserID", ctx, "op1").Return(restaurant("r1", "op1"), nil)

		_, err := svc.CreateProduct(ctx, "op1", ProductInput{Name: strPtr("Tea"), Price: &price, Stock: intPtr(-1)})
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Restocking flips in_stock", func(t *testing.T) {
		svc, rests, products, _ := setupOperator()
		rests.On("GetByUserID", ctx, "op1").Return(restaurant("r1", "op1"), nil)
		products.On("GetByID", ctx, "p1").Return(product("p1", "r1", "250", 0), nil)
		products.On("Save", ctx, mock.AnythingOfType("*model.Product")).Return(nil)

		p, err := svc.UpdateProduct(ctx, "op1", "p1", ProductInput{Stock: intPtr(10)})

		require.NoError(t, err)
		assert.True(t, p.InStock)
		assert.Equal(t, 10, p.Stock)
	})

	t.Run("Another restaurant's product is not found", func(t *testing.T) {
		svc, rests, products, _ := setupOperator()
		rests.On("GetByUserID", ctx, "op1").Return(restaurant("r1", "op1"), nil)
		products.On("GetByID", ctx, "p9").Return(product("p9", "r2", "250", 3), nil)

		_, err := svc.UpdateProduct(ctx, "op1", "p9", ProductInput{Stock: intPtr(10)})
		assert.ErrorIs(t, err, errs.ErrNotFound)
		products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestListProductsWithoutRestaurant(t *testing.T) {
	ctx := context.Background()
	svc, rests, _, _ := setupOperator()
	rests.On("GetByUserID", ctx, "op1").Return(nil, errs.ErrNotFound)

	list, err := svc.ListProducts(ctx, "op1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
