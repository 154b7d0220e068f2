package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	catalogModel "nepeats/internal/domain/catalog/model"
	couponModel "nepeats/internal/domain/coupon/model"
	couponService "nepeats/internal/domain/coupon/service"
	"nepeats/internal/domain/order/model"
	"nepeats/internal/domain/order/pricing"
	userModel "nepeats/internal/domain/user/model"
	"nepeats/internal/pkg/events"
	"nepeats/pkg/errs"
	"nepeats/pkg/metrics"
	baseModel "nepeats/pkg/model"
	"nepeats/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListByRestaurant(ctx context.Context, restaurantID, restaurantStatus string) ([]model.Order, error) {
	args := m.Called(ctx, restaurantID, restaurantStatus)
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForRestaurant(ctx context.Context, restaurantID, id string) (*model.Order, error) {
	args := m.Called(ctx, restaurantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateFulfillment(ctx context.Context, id, from string, fields map[string]interface{}) (bool, error) {
	args := m.Called(ctx, id, from, fields)
	return args.Bool(0), args.Error(1)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*userModel.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserStore) Ensure(ctx context.Context, user *userModel.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserStore) AppendOrder(ctx context.Context, userID, orderID string) error {
	return m.Called(ctx, userID, orderID).Error(0)
}

type MockAddressBook struct {
	mock.Mock
}

func (m *MockAddressBook) Get(ctx context.Context, userID, id string) (*userModel.Address, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.Address), args.Error(1)
}

func (m *MockAddressBook) DefaultOrFirst(ctx context.Context, userID string) (*userModel.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.Address), args.Error(1)
}

type MockStock struct {
	mock.Mock
}

func (m *MockStock) GetByIDs(ctx context.Context, ids []string) (map[string]*catalogModel.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[string]*catalogModel.Product), args.Error(1)
}

func (m *MockStock) Reserve(ctx context.Context, id string, qty int) error {
	return m.Called(ctx, id, qty).Error(0)
}

type MockCoupons struct {
	mock.Mock
}

func (m *MockCoupons) Preview(ctx context.Context, code string, amount decimal.Decimal) (*couponService.Quote, error) {
	args := m.Called(ctx, code, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponService.Quote), args.Error(1)
}

func (m *MockCoupons) Apply(ctx context.Context, code string, amount decimal.Decimal) (*couponService.Quote, error) {
	args := m.Called(ctx, code, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponService.Quote), args.Error(1)
}

// menuSpy 记录被刷新的餐厅
type menuSpy struct {
	invalidated []string
}

func (s *menuSpy) InvalidateMenu(ctx context.Context, restaurantIDs ...string) {
	s.invalidated = append(s.invalidated, restaurantIDs...)
}

// recorder 记录发出的事件
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// directTx 直接执行 fn，不开事务
type directTx struct{}

func (directTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type fixture struct {
	orders    *MockOrderRepository
	users     *MockUserStore
	addresses *MockAddressBook
	stock     *MockStock
	coupons   *MockCoupons
	menus     *menuSpy
	events    *recorder
	svc       OrderService
}

func newFixture() *fixture {
	f := &fixture{
		orders:    new(MockOrderRepository),
		users:     new(MockUserStore),
		addresses: new(MockAddressBook),
		stock:     new(MockStock),
		coupons:   new(MockCoupons),
		menus:     &menuSpy{},
		events:    &recorder{},
	}
	f.svc = NewOrderService(Deps{
		Orders:    f.orders,
		Users:     f.users,
		Addresses: f.addresses,
		Products:  f.stock,
		Coupons:   f.coupons,
		Menus:     f.menus,
		Tx:        directTx{},
		Events:    f.events,
		Metrics:   metrics.NewCollector(prometheus.NewRegistry()),
		Policy:    pricing.NewPolicy(500, 50),
	})
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func product(id, restaurantID, price string, stock int) *catalogModel.Product {
	return &catalogModel.Product{
		BaseModel:    baseModel.BaseModel{ID: id},
		RestaurantID: restaurantID,
		Name:         "Momo " + id,
		Price:        dec(price),
		Stock:        stock,
		InStock:      stock > 0,
		IsAvailable:  true,
	}
}

func user(id string) *userModel.User {
	return &userModel.User{BaseModel: baseModel.BaseModel{ID: id}, Name: "Sita", Email: "sita@example.com"}
}

// expectCreate 模拟数据库生成主键
func (f *fixture) expectCreate(id string) {
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) { args.Get(1).(*model.Order).ID = id }).
		Return(nil)
}

func TestPlaceOrderCashNoCoupon(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.users.On("Ensure", ctx, mock.AnythingOfType("*model.User")).Return(nil)
	f.addresses.On("DefaultOrFirst", ctx, "u1").Return(&userModel.Address{Label: "Home", Street: "Thamel Marg", City: "Kathmandu", Phone: "9800000000"}, nil)
	f.stock.On("GetByIDs", ctx, []string{"p1"}).Return(map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 10)}, nil)
	f.stock.On("Reserve", ctx, "p1", 2).Return(nil).Once()
	f.expectCreate("o1")
	f.users.On("AppendOrder", ctx, "u1", "o1").Return(nil).Once()

	order, err := f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{Items: []ItemInput{{ProductID: "p1", Qty: 2}}})

	require.NoError(t, err)
	assert.True(t, order.Subtotal.Equal(dec("360")))
	assert.True(t, order.DeliveryCharge.Equal(dec("50")))
	assert.True(t, order.DiscountAmount.IsZero())
	assert.True(t, order.Total.Equal(dec("410")))
	assert.Equal(t, model.PaymentCash, order.PaymentMethod)
	assert.Equal(t, model.PaymentCompleted, order.PaymentStatus)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, model.RestaurantPending, order.RestaurantStatus)
	assert.Equal(t, "r1", order.RestaurantID)
	assert.Nil(t, order.CouponCode)
	require.NotNil(t, order.DeliveryAddress)
	assert.Equal(t, "Thamel Marg", order.DeliveryAddress.Street)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Momo p1", order.Items[0].Name)
	assert.True(t, order.Items[0].Price.Equal(dec("180")))

	assert.Equal(t, []string{"r1"}, f.menus.invalidated)
	assert.Equal(t, []events.Type{events.OrderPlaced}, f.events.types())
	f.stock.AssertExpectations(t)
	f.users.AssertExpectations(t)
}

func TestPlaceOrderWithCoupon(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	quote := &couponService.Quote{Coupon: &couponModel.Coupon{Code: "SAVE10"}, Discount: dec("30")}
	f.users.On("Ensure", ctx, mock.AnythingOfType("*model.User")).Return(nil)
	f.addresses.On("DefaultOrFirst", ctx, "u1").Return(nil, nil)
	f.stock.On("GetByIDs", ctx, []string{"p1"}).Return(map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 10)}, nil)
	f.stock.On("Reserve", ctx, "p1", 2).Return(nil)
	f.coupons.On("Preview", ctx, "SAVE10", mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(dec("360")) })).Return(quote, nil)
	f.coupons.On("Apply", ctx, "SAVE10", mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(dec("360")) })).Return(quote, nil).Once()
	f.expectCreate("o2")
	f.users.On("AppendOrder", ctx, "u1", "o2").Return(nil)

	order, err := f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{
		Items:         []ItemInput{{ProductID: "p1", Qty: 2}},
		PaymentMethod: model.PaymentEsewa,
		CouponCode:    " save10 ",
	})

	require.NoError(t, err)
	assert.True(t, order.DiscountAmount.Equal(dec("30")))
	assert.True(t, order.Total.Equal(dec("380")))
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE10", *order.CouponCode)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Nil(t, order.DeliveryAddress)
	f.coupons.AssertExpectations(t)
}

func TestPlaceOrderRejectedBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		items    []ItemInput
		products map[string]*catalogModel.Product
		wantErr  error
	}{
		{
			name:  "Multiple restaurants",
			items: []ItemInput{{ProductID: "p1", Qty: 1}, {ProductID: "p2", Qty: 1}},
			products: map[string]*catalogModel.Product{
				"p1": product("p1", "r1", "180", 10),
				"p2": product("p2", "r2", "120", 10),
			},
			wantErr: errs.ErrMultiRestaurant,
		},
		{
			name:     "Stock 2, qty 3",
			items:    []ItemInput{{ProductID: "p1", Qty: 3}},
			products: map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 2)},
			wantErr:  errs.ErrOutOfStock,
		},
		{
			name:     "Same product twice exceeds stock",
			items:    []ItemInput{{ProductID: "p1", Qty: 2}, {ProductID: "p1", Qty: 1}},
			products: map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 2)},
			wantErr:  errs.ErrOutOfStock,
		},
		{
			name:  "Unavailable product",
			items: []ItemInput{{ProductID: "p1", Qty: 1}},
			products: map[string]*catalogModel.Product{"p1": func() *catalogModel.Product {
				p := product("p1", "r1", "180", 5)
				p.IsAvailable = false
				return p
			}()},
			wantErr: errs.ErrOutOfStock,
		},
		{
			name:     "Unknown product",
			items:    []ItemInput{{ProductID: "ghost", Qty: 1}},
			products: map[string]*catalogModel.Product{},
			wantErr:  errs.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.users.On("Ensure", ctx, mock.AnythingOfType("*model.User")).Return(nil)
			f.addresses.On("DefaultOrFirst", ctx, "u1").Return(nil, nil)
			f.stock.On("GetByIDs", ctx, mock.Anything).Return(tt.products, nil)

			_, err := f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{Items: tt.items})

			assert.ErrorIs(t, err, tt.wantErr)
			f.stock.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
			f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.users.AssertNotCalled(t, "AppendOrder", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, f.events.types())
		})
	}
}

func TestPlaceOrderFailuresInsideTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Lost the stock race", func(t *testing.T) {
		f := newFixture()
		f.users.On("Ensure", ctx, mock.AnythingOfType("*model.User")).Return(nil)
		f.addresses.On("DefaultOrFirst", ctx, "u1").Return(nil, nil)
		f.stock.On("GetByIDs", ctx, []string{"p1"}).Return(map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 2)}, nil)
		f.stock.On("Reserve", ctx, "p1", 2).Return(errs.ErrOutOfStock)

		_, err := f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{Items: []ItemInput{{ProductID: "p1", Qty: 2}}})

		assert.ErrorIs(t, err, errs.ErrOutOfStock)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.menus.invalidated)
	})

	t.Run("Coupon used up between preview and apply", func(t *testing.T) {
		f := newFixture()
		quote := &couponService.Quote{Coupon: &couponModel.Coupon{Code: "ONCE"}, Discount: dec("18")}
		f.users.On("Ensure", ctx, mock.AnythingOfType("*model.User")).Return(nil)
		f.addresses.On("DefaultOrFirst", ctx, "u1").Return(nil, nil)
		f.stock.On("GetByIDs", ctx, []string{"p1"}).Return(map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 5)}, nil)
		f.stock.On("Reserve", ctx, "p1", 1).Return(nil)
		f.coupons.On("Preview", ctx, "ONCE", mock.Anything).Return(quote, nil)
		f.coupons.On("Apply", ctx, "ONCE", mock.Anything).Return(nil, errs.ErrCouponExpired)

		_, err := f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{Items: []ItemInput{{ProductID: "p1"}}, CouponCode: "once"})

		assert.ErrorIs(t, err, errs.ErrCouponExpired)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Coupon below minimum fails before the transaction", func(t *testing.T) {
		f := newFixture()
		f.users.On("Ensure", ctx, mock.AnythingOfType("*model.User")).Return(nil)
		f.addresses.On("DefaultOrFirst", ctx, "u1").Return(nil, nil)
		f.stock.On("GetByIDs", ctx, []string{"p1"}).Return(map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 5)}, nil)
		f.coupons.On("Preview", ctx, "BIG", mock.Anything).Return(nil, errs.ErrCouponBelowMinimum)

		_, err := f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{Items: []ItemInput{{ProductID: "p1"}}, CouponCode: "BIG"})

		assert.ErrorIs(t, err, errs.ErrCouponBelowMinimum)
		f.stock.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPlaceOrderAddressResolution(t *testing.T) {
	ctx := context.Background()
	saved := &userModel.Address{Label: "Office", Street: "Durbar Marg", City: "Kathmandu"}
	fallback := &userModel.Address{Label: "Home", Street: "Lakeside", City: "Pokhara"}

	tests := []struct {
		name       string
		input      PlaceOrderInput
		setup      func(f *fixture)
		wantStreet string
		wantErr    error
	}{
		{
			name:  "Saved address id",
			input: PlaceOrderInput{DeliveryAddressID: "a1"},
			setup: func(f *fixture) {
				f.addresses.On("Get", ctx, "u1", "a1").Return(saved, nil)
			},
			wantStreet: "Durbar Marg",
		},
		{
			name:    "Unknown saved address id",
			input:   PlaceOrderInput{DeliveryAddressID: "missing"},
			setup:   func(f *fixture) { f.addresses.On("Get", ctx, "u1", "missing").Return(nil, errs.ErrNotFound) },
			wantErr: errs.ErrNotFound,
		},
		{
			name:       "Inline address",
			input:      PlaceOrderInput{DeliveryAddress: &model.DeliveryAddress{Street: "Bhaktapur Durbar Square", City: "Bhaktapur"}},
			setup:      func(f *fixture) {},
			wantStreet: "Bhaktapur Durbar Square",
		},
		{
			name:       "Default or first address",
			setup:      func(f *fixture) { f.addresses.On("DefaultOrFirst", ctx, "u1").Return(fallback, nil) },
			wantStreet: "Lakeside",
		},
		{
			name:  "No address at all",
			setup: func(f *fixture) { f.addresses.On("DefaultOrFirst", ctx, "u1").Return(nil, nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.users.On("Ensure", ctx, mock.AnythingOfType("*model.User")).Return(nil)
			f.stock.On("GetByIDs", ctx, []string{"p1"}).Return(map[string]*catalogModel.Product{"p1": product("p1", "r1", "600", 5)}, nil)
			f.stock.On("Reserve", ctx, "p1", 1).Return(nil)
			f.expectCreate("o3")
			f.users.On("AppendOrder", ctx, "u1", "o3").Return(nil)
			tt.setup(f)

			input := tt.input
			input.Items = []ItemInput{{ProductID: "p1", Qty: 1}}
			order, err := f.svc.PlaceOrder(ctx, "u1", input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.True(t, order.DeliveryCharge.IsZero(), "600 is above the free delivery threshold")
			if tt.wantStreet == "" {
				assert.Nil(t, order.DeliveryAddress)
				return
			}
			require.NotNil(t, order.DeliveryAddress)
			assert.Equal(t, tt.wantStreet, order.DeliveryAddress.Street)
		})
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{Items: []ItemInput{{ProductID: "p1"}}, PaymentMethod: "bitcoin"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{Items: []ItemInput{{ProductID: "p1"}}, Status: "delivering"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = f.svc.PlaceOrder(ctx, "u1", PlaceOrderInput{Items: []ItemInput{{ProductID: "p1", Qty: -1}}})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestPlaceOrderCreatesMissingProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("First order from an unknown customer", func(t *testing.T) {
		f := newFixture()
		f.stock.On("GetByIDs", ctx, []string{"p1"}).Return(map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 5)}, nil)
		f.stock.On("Reserve", ctx, "p1", 1).Return(nil)
		f.users.On("Ensure", ctx, mock.MatchedBy(func(u *userModel.User) bool {
			return u.ID == "u-new" && u.Role == "customer"
		})).Return(nil).Once()
		f.expectCreate("o9")
		f.users.On("AppendOrder", ctx, "u-new", "o9").Return(nil).Once()

		order, err := f.svc.PlaceOrder(ctx, "u-new", PlaceOrderInput{
			Items:           []ItemInput{{ProductID: "p1"}},
			DeliveryAddress: &model.DeliveryAddress{Street: "New Road", City: "Kathmandu"},
			Role:            "customer",
		})

		require.NoError(t, err)
		assert.Equal(t, "u-new", order.UserID)
		f.users.AssertExpectations(t)
		f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("Profile write failure rolls back", func(t *testing.T) {
		f := newFixture()
		f.stock.On("GetByIDs", ctx, []string{"p1"}).Return(map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 5)}, nil)
		f.stock.On("Reserve", ctx, "p1", 1).Return(nil)
		f.users.On("Ensure", ctx, mock.AnythingOfType("*model.User")).Return(errors.New("connection reset"))

		_, err := f.svc.PlaceOrder(ctx, "u-new", PlaceOrderInput{
			Items:           []ItemInput{{ProductID: "p1"}},
			DeliveryAddress: &model.DeliveryAddress{Street: "New Road", City: "Kathmandu"},
		})

		assert.Error(t, err)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.events.types())
	})
}

func TestQuoteHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quote := &couponService.Quote{Coupon: &couponModel.Coupon{Code: "SAVE10"}, Discount: dec("30")}
	f.stock.On("GetByIDs", ctx, []string{"p1"}).Return(map[string]*catalogModel.Product{"p1": product("p1", "r1", "180", 10)}, nil)
	f.coupons.On("Preview", ctx, "SAVE10", mock.Anything).Return(quote, nil)

	q, err := f.svc.Quote(ctx, PlaceOrderInput{Items: []ItemInput{{ProductID: "p1", Qty: 2}}, CouponCode: "SAVE10"})

	require.NoError(t, err)
	assert.True(t, q.Total.Equal(dec("380")))
	assert.Equal(t, "r1", q.RestaurantID)
	f.stock.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
	f.coupons.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListMine(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orders.On("ListByUser", ctx, "u1", 10, 10).Return([]model.Order{{UserID: "u1"}}, int64(11), nil)

	res, err := f.svc.ListMine(ctx, "u1", utils.Pagination{Page: 2, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(11), res.Total)
	assert.Equal(t, 2, res.Page)
}

func TestReceipt(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 10, 1, 18, 30, 0, 0, time.UTC)
	order := &model.Order{
		BaseModel:      baseModel.BaseModel{ID: "o1", CreatedAt: created},
		UserID:         "u1",
		Items:          []model.OrderItem{{Name: "Chicken Momo", Qty: 2, Price: dec("180")}},
		Subtotal:       dec("360"),
		DeliveryCharge: dec("50"),
		Total:          dec("410"),
		PaymentMethod:  model.PaymentCash,
		PaymentStatus:  model.PaymentCompleted,
		Status:         model.StatusPending,
	}

	t.Run("Owner", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetByID", ctx, "o1").Return(order, nil)
		f.users.On("GetByID", ctx, "u1").Return(user("u1"), nil)

		r, err := f.svc.Receipt(ctx, "u1", false, "o1")

		require.NoError(t, err)
		assert.Equal(t, created, r.OrderDate)
		assert.Equal(t, "Sita", r.Customer.Name)
		require.Len(t, r.Items, 1)
		assert.True(t, r.Items[0].Total.Equal(dec("360")))
	})

	t.Run("Other customer", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetByID", ctx, "o1").Return(order, nil)

		_, err := f.svc.Receipt(ctx, "u2", false, "o1")
		assert.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("Admin", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetByID", ctx, "o1").Return(order, nil)
		f.users.On("GetByID", ctx, "u1").Return(nil, errs.ErrNotFound)

		r, err := f.svc.Receipt(ctx, "admin", true, "o1")
		require.NoError(t, err)
		assert.Empty(t, r.Customer.Name)
	})
}
