package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	catalogModel "nepeats/internal/domain/catalog/model"
	"nepeats/internal/domain/order/fulfillment"
	"nepeats/internal/domain/order/model"
	"nepeats/internal/domain/order/repository"
	"nepeats/internal/pkg/events"
	"nepeats/pkg/errs"
	"nepeats/pkg/logger"
	"nepeats/pkg/metrics"

	"go.uber.org/zap"
)

// RestaurantFinder 按运营账号查餐厅
type RestaurantFinder interface {
	GetByUserID(ctx context.Context, userID string) (*catalogModel.Restaurant, error)
}

// FulfillmentInput 餐厅更新订单
// RejectionReason 和 PreparationTime 为可选备注，可随任意迁移一起设置
type FulfillmentInput struct {
	RestaurantStatus string
	RejectionReason  *string
	PreparationTime  *int
}

// FulfillmentService 餐厅履约
type FulfillmentService interface {
	// ListOrders 本餐厅订单，restaurantStatus 为空时返回全部
	ListOrders(ctx context.Context, operatorID, restaurantStatus string) ([]model.Order, error)
	Update(ctx context.Context, operatorID, orderID string, input FulfillmentInput) (*model.Order, error)
}

type fulfillmentService struct {
	orders      repository.OrderRepository
	restaurants RestaurantFinder
	events      events.Publisher
	metrics     *metrics.Collector
}

func NewFulfillmentService(orders repository.OrderRepository, restaurants RestaurantFinder, publisher events.Publisher, m *metrics.Collector) FulfillmentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &fulfillmentService{orders: orders, restaurants: restaurants, events: publisher, metrics: m}
}

func (s *fulfillmentService) ListOrders(ctx context.Context, operatorID, restaurantStatus string) ([]model.Order, error) {
	if restaurantStatus != "" && !fulfillment.Known(restaurantStatus) {
		return nil, fmt.Errorf("%w: unknown restaurant status %q", errs.ErrInvalidInput, restaurantStatus)
	}

	rest, err := s.restaurants.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return []model.Order{}, nil
		}
		return nil, err
	}
	return s.orders.ListByRestaurant(ctx, rest.ID, restaurantStatus)
}

func (s *fulfillmentService) Update(ctx context.Context, operatorID, orderID string, input FulfillmentInput) (*model.Order, error) {
	if input.PreparationTime != nil && *input.PreparationTime < 0 {
		return nil, fmt.Errorf("%w: preparationTime must not be negative", errs.ErrInvalidInput)
	}

	// 1. 只能操作本餐厅订单
	rest, err := s.restaurants.GetByUserID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetForRestaurant(ctx, rest.ID, orderID)
	if err != nil {
		return nil, err
	}

	// 2. 状态机校验
	from, to := order.RestaurantStatus, input.RestaurantStatus
	status, err := fulfillment.Next(from, to)
	if err != nil {
		return nil, err
	}

	// 3. 以读取时的状态为条件更新
	fields := map[string]interface{}{
		"restaurant_status": to,
		"updated_at":        time.Now(),
	}
	if status != "" {
		fields["status"] = status
	}
	if input.RejectionReason != nil && strings.TrimSpace(*input.RejectionReason) != "" {
		fields["rejection_reason"] = *input.RejectionReason
	}
	if input.PreparationTime != nil && *input.PreparationTime > 0 {
		fields["preparation_time"] = *input.PreparationTime
	}

	ok, err := s.orders.UpdateFulfillment(ctx, order.ID, from, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order status changed concurrently, reload and retry", errs.ErrConflict)
	}

	order.RestaurantStatus = to
	if status != "" {
		order.Status = status
	}
	if v, ok := fields["rejection_reason"].(string); ok {
		order.RejectionReason = &v
	}
	if v, ok := fields["preparation_time"].(int); ok {
		order.PreparationTime = &v
	}

	// 4. 通知与指标
	if from != to {
		s.metrics.RecordFulfillment(to)
		publish(ctx, s.events, events.OrderStatusChanged, order)
	}

	logger.Log.Info("Order fulfillment updated",
		zap.String("order_id", order.ID),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("status", order.Status),
	)
	return order, nil
}
