package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogModel "nepeats/internal/domain/catalog/model"
	couponService "nepeats/internal/domain/coupon/service"
	"nepeats/internal/domain/order/model"
	"nepeats/internal/domain/order/pricing"
	"nepeats/internal/domain/order/repository"
	userModel "nepeats/internal/domain/user/model"
	"nepeats/internal/pkg/events"
	"nepeats/pkg/database"
	"nepeats/pkg/errs"
	"nepeats/pkg/logger"
	"nepeats/pkg/metrics"
	"nepeats/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 下单依赖的其他领域能力

type UserStore interface {
	GetByID(ctx context.Context, id string) (*userModel.User, error)
	// Ensure 首次下单的用户按令牌信息建档，已存在时不做修改
	Ensure(ctx context.Context, user *userModel.User) error
	AppendOrder(ctx context.Context, userID, orderID string) error
}

type AddressBook interface {
	Get(ctx context.Context, userID, id string) (*userModel.Address, error)
	DefaultOrFirst(ctx context.Context, userID string) (*userModel.Address, error)
}

type Stock interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*catalogModel.Product, error)
	Reserve(ctx context.Context, id string, qty int) error
}

type Coupons interface {
	Preview(ctx context.Context, code string, amount decimal.Decimal) (*couponService.Quote, error)
	Apply(ctx context.Context, code string, amount decimal.Decimal) (*couponService.Quote, error)
}

type MenuCache interface {
	InvalidateMenu(ctx context.Context, restaurantIDs ...string)
}

// ItemInput 下单行
type ItemInput struct {
	ProductID string
	Qty       int
}

// PlaceOrderInput 下单参数
// 地址优先级：DeliveryAddressID > DeliveryAddress > 默认地址 > 最早的地址 > 无
type PlaceOrderInput struct {
	Items             []ItemInput
	PaymentMethod     string
	DeliveryAddressID string
	DeliveryAddress   *model.DeliveryAddress
	CouponCode        string
	Status            string
	// Role 令牌中的角色，仅用于首次建档
	Role string
}

// QuoteResult 下单前试算，不产生任何写入
type QuoteResult struct {
	RestaurantID string            `json:"restaurantId"`
	Items        []model.OrderItem `json:"items"`
	CouponCode   *string           `json:"couponCode"`
	pricing.Breakdown
}

type OrderService interface {
	Quote(ctx context.Context, input PlaceOrderInput) (*QuoteResult, error)
	PlaceOrder(ctx context.Context, userID string, input PlaceOrderInput) (*model.Order, error)
	ListMine(ctx context.Context, userID string, page utils.Pagination) (*utils.PageResult, error)
	// Get 本人或管理员可见
	Get(ctx context.Context, userID string, isAdmin bool, orderID string) (*model.Order, error)
	Receipt(ctx context.Context, userID string, isAdmin bool, orderID string) (*Receipt, error)
}

type orderService struct {
	orders    repository.OrderRepository
	users     UserStore
	addresses AddressBook
	products  Stock
	coupons   Coupons
	menus     MenuCache
	tx        database.Transactor
	events    events.Publisher
	metrics   *metrics.Collector
	policy    pricing.Policy
}

// Deps 订单服务依赖
type Deps struct {
	Orders    repository.OrderRepository
	Users     UserStore
	Addresses AddressBook
	Products  Stock
	Coupons   Coupons
	Menus     MenuCache
	Tx        database.Transactor
	Events    events.Publisher
	Metrics   *metrics.Collector
	Policy    pricing.Policy
}

func NewOrderService(d Deps) OrderService {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	return &orderService{
		orders:    d.Orders,
		users:     d.Users,
		addresses: d.Addresses,
		products:  d.Products,
		coupons:   d.Coupons,
		menus:     d.Menus,
		tx:        d.Tx,
		events:    d.Events,
		metrics:   d.Metrics,
		policy:    d.Policy,
	}
}

// cart 已校验的购物车
type cart struct {
	restaurantID string
	items        []model.OrderItem
	lines        []pricing.Line
	subtotal     decimal.Decimal
}

func (s *orderService) Quote(ctx context.Context, input PlaceOrderInput) (*QuoteResult, error) {
	if _, _, err := normalize(&input); err != nil {
		return nil, err
	}
	c, err := s.checkCart(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	res := &QuoteResult{RestaurantID: c.restaurantID, Items: c.items}
	discount := decimal.Zero
	if code := couponService.NormalizeCode(input.CouponCode); code != "" {
		q, err := s.coupons.Preview(ctx, code, c.subtotal)
		if err != nil {
			return nil, err
		}
		discount = q.Discount
		res.CouponCode = &code
	}
	res.Breakdown = pricing.Price(c.lines, s.policy, discount)
	return res, nil
}

func (s *orderService) PlaceOrder(ctx context.Context, userID string, input PlaceOrderInput) (*model.Order, error) {
	order, err := s.placeOrder(ctx, userID, input)
	if err != nil {
		s.metrics.RecordOrderFailure(failureReason(err))
		return nil, err
	}

	// 6. 提交后：刷新菜单缓存、发出事件
	s.menus.InvalidateMenu(ctx, order.RestaurantID)
	s.publish(ctx, events.OrderPlaced, order)
	s.metrics.RecordOrderPlaced(order.PaymentMethod)

	logger.Log.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("restaurant_id", order.RestaurantID),
		zap.String("total", order.Total.String()),
		zap.String("payment_method", order.PaymentMethod),
	)
	return order, nil
}

func (s *orderService) placeOrder(ctx context.Context, userID string, input PlaceOrderInput) (*model.Order, error) {
	// 1. 参数校验
	method, status, err := normalize(&input)
	if err != nil {
		return nil, err
	}

	// 2. 收货地址
	address, err := s.resolveAddress(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	// 3. 商品校验，全部在第一次写入之前完成
	c, err := s.checkCart(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	// 优惠码先试算一次，失败时不开启事务
	code := couponService.NormalizeCode(input.CouponCode)
	if code != "" {
		if _, err := s.coupons.Preview(ctx, code, c.subtotal); err != nil {
			return nil, err
		}
	}

	paymentStatus := model.PaymentPending
	if method == model.PaymentCash {
		paymentStatus = model.PaymentCompleted
	}
	order := &model.Order{
		UserID:           userID,
		RestaurantID:     c.restaurantID,
		Items:            c.items,
		DeliveryAddress:  address,
		Status:           status,
		RestaurantStatus: model.RestaurantPending,
		PaymentMethod:    method,
		PaymentStatus:    paymentStatus,
	}

	// 4. 事务：扣库存、占用优惠码、建档并写订单、追加用户历史
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, item := range c.items {
			if err := s.products.Reserve(ctx, item.ProductID, item.Qty); err != nil {
				return err
			}
		}

		discount := decimal.Zero
		if code != "" {
			q, err := s.coupons.Apply(ctx, code, c.subtotal)
			if err != nil {
				return err
			}
			discount = q.Discount
			order.CouponCode = &code
		}

		// 5. 计价
		b := pricing.Price(c.lines, s.policy, discount)
		order.Subtotal = b.Subtotal
		order.DeliveryCharge = b.DeliveryCharge
		order.DiscountAmount = b.Discount
		order.Total = b.Total

		owner := &userModel.User{Role: input.Role}
		owner.ID = userID
		if err := s.users.Ensure(ctx, owner); err != nil {
			return err
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		return s.users.AppendOrder(ctx, userID, order.ID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// normalize 补全默认值：数量 1、现金支付、pending 状态
func normalize(input *PlaceOrderInput) (method, status string, err error) {
	if len(input.Items) == 0 {
		return "", "", fmt.Errorf("%w: no items in order", errs.ErrInvalidInput)
	}
	for i := range input.Items {
		if input.Items[i].ProductID == "" {
			return "", "", fmt.Errorf("%w: productId is required", errs.ErrInvalidInput)
		}
		if input.Items[i].Qty == 0 {
			input.Items[i].Qty = 1
		}
		if input.Items[i].Qty < 0 {
			return "", "", fmt.Errorf("%w: qty must be positive", errs.ErrInvalidInput)
		}
	}

	method = input.PaymentMethod
	switch method {
	case "":
		method = model.PaymentCash
	case model.PaymentCash, model.PaymentEsewa, model.PaymentKhalti:
	default:
		return "", "", fmt.Errorf("%w: unsupported payment method %q", errs.ErrInvalidInput, method)
	}

	status = input.Status
	switch status {
	case "":
		status = model.StatusPending
	case model.StatusPending, model.StatusDraft:
	default:
		return "", "", fmt.Errorf("%w: initial status must be pending or draft", errs.ErrInvalidInput)
	}
	return method, status, nil
}

func (s *orderService) resolveAddress(ctx context.Context, userID string, input PlaceOrderInput) (*model.DeliveryAddress, error) {
	if input.DeliveryAddressID != "" {
		addr, err := s.addresses.Get(ctx, userID, input.DeliveryAddressID)
		if err != nil {
			return nil, err
		}
		return snapshot(addr), nil
	}
	if input.DeliveryAddress != nil {
		return input.DeliveryAddress, nil
	}

	addr, err := s.addresses.DefaultOrFirst(ctx, userID)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, nil
	}
	return snapshot(addr), nil
}

func snapshot(a *userModel.Address) *model.DeliveryAddress {
	return &model.DeliveryAddress{
		Label:    a.Label,
		Street:   a.Street,
		City:     a.City,
		Area:     a.Area,
		Landmark: a.Landmark,
		Phone:    a.Phone,
	}
}

// checkCart 商品存在、同一餐厅、库存充足，价格和名称在此刻快照
func (s *orderService) checkCart(ctx context.Context, items []ItemInput) (*cart, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	c := &cart{}
	wanted := make(map[string]int, len(ids))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s not found", errs.ErrNotFound, it.ProductID)
		}
		if c.restaurantID == "" {
			c.restaurantID = p.RestaurantID
		} else if p.RestaurantID != c.restaurantID {
			return nil, fmt.Errorf("%w: orders cannot contain items from multiple restaurants", errs.ErrMultiRestaurant)
		}

		wanted[p.ID] += it.Qty
		if !p.IsAvailable {
			return nil, fmt.Errorf("%w: %s is currently unavailable", errs.ErrOutOfStock, p.Name)
		}
		if !p.Orderable(wanted[p.ID]) {
			return nil, fmt.Errorf("%w: %s is out of stock or insufficient quantity available. Available: %d",
				errs.ErrOutOfStock, p.Name, p.Stock)
		}

		c.items = append(c.items, model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Qty:       it.Qty,
			Price:     p.Price,
		})
		c.lines = append(c.lines, pricing.Line{Price: p.Price, Qty: it.Qty})
	}
	c.subtotal = pricing.Subtotal(c.lines)
	return c, nil
}

func (s *orderService) ListMine(ctx context.Context, userID string, page utils.Pagination) (*utils.PageResult, error) {
	offset, limit := page.GetPageOffset()
	list, total, err := s.orders.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{List: list, Total: total, Page: page.Page, Limit: limit}, nil
}

func (s *orderService) Get(ctx context.Context, userID string, isAdmin bool, orderID string) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(userID) && !isAdmin {
		return nil, fmt.Errorf("%w: access denied", errs.ErrForbidden)
	}
	return order, nil
}

func (s *orderService) publish(ctx context.Context, t events.Type, order *model.Order) {
	publish(ctx, s.events, t, order)
}

// publish 事件只在事务提交后发出，发送失败不影响订单
func publish(ctx context.Context, p events.Publisher, t events.Type, order *model.Order) {
	if err := p.Publish(ctx, order.Event(t)); err != nil {
		logger.Log.Warn("Order event not published", zap.String("order_id", order.ID), zap.String("type", string(t)), zap.Error(err))
	}
}

// failureReason 下单失败的指标标签
func failureReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, errs.ErrMultiRestaurant):
		return "multi_restaurant"
	case errors.Is(err, errs.ErrCouponUnknown), errors.Is(err, errs.ErrCouponExpired), errors.Is(err, errs.ErrCouponBelowMinimum):
		return "coupon"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrInvalidInput):
		return "invalid_input"
	}
	return "error"
}

// Receipt 收据数据，HTML 渲染由前端完成
type Receipt struct {
	OrderID         string                 `json:"orderId"`
	OrderDate       time.Time              `json:"orderDate"`
	Customer        ReceiptCustomer        `json:"customer"`
	DeliveryAddress *model.DeliveryAddress `json:"deliveryAddress"`
	Items           []ReceiptLine          `json:"items"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	DeliveryCharge  decimal.Decimal        `json:"deliveryCharge"`
	CouponCode      *string                `json:"couponCode,omitempty"`
	DiscountAmount  decimal.Decimal        `json:"discountAmount"`
	Total           decimal.Decimal        `json:"total"`
	PaymentMethod   string                 `json:"paymentMethod"`
	PaymentStatus   string                 `json:"paymentStatus"`
	TransactionID   *string                `json:"transactionId"`
	Status          string                 `json:"status"`
}

type ReceiptCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ReceiptLine struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

func (s *orderService) Receipt(ctx context.Context, userID string, isAdmin bool, orderID string) (*Receipt, error) {
	order, err := s.Get(ctx, userID, isAdmin, orderID)
	if err != nil {
		return nil, err
	}

	r := &Receipt{
		OrderID:         order.ID,
		OrderDate:       order.CreatedAt,
		DeliveryAddress: order.DeliveryAddress,
		Items:           make([]ReceiptLine, 0, len(order.Items)),
		Subtotal:        order.Subtotal,
		DeliveryCharge:  order.DeliveryCharge,
		CouponCode:      order.CouponCode,
		DiscountAmount:  order.DiscountAmount,
		Total:           order.Total,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		TransactionID:   order.TransactionID,
		Status:          order.Status,
	}
	for _, it := range order.Items {
		r.Items = append(r.Items, ReceiptLine{Name: it.Name, Quantity: it.Qty, Price: it.Price, Total: it.LineTotal()})
	}

	// 顾客资料缺失不影响收据
	if u, err := s.users.GetByID(ctx, order.UserID); err == nil {
		r.Customer = ReceiptCustomer{Name: u.Name, Email: u.Email}
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	return r, nil
}
