package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type 订单事件类型，同时作为 RabbitMQ 路由键
type Type string

const (
	OrderPlaced        Type = "order.placed"
	OrderPaid          Type = "order.paid"
	OrderPaymentFailed Type = "order.payment_failed"
	OrderStatusChanged Type = "order.status_changed"
)

// Event 订单生命周期事件，在事务提交后发出
type Event struct {
	ID               string          `json:"id"`
	Type             Type            `json:"type"`
	OrderID          string          `json:"orderId"`
	UserID           string          `json:"userId"`
	RestaurantID     string          `json:"restaurantId"`
	Status           string          `json:"status,omitempty"`
	RestaurantStatus string          `json:"restaurantStatus,omitempty"`
	PaymentStatus    string          `json:"paymentStatus,omitempty"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	Total            decimal.Decimal `json:"total"`
	OccurredAt       time.Time       `json:"occurredAt"`
}

// New 生成带 ID 和时间戳的事件
func New(t Type, orderID string) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop 未配置下游时使用
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
