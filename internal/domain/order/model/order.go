package model

import (
	"nepeats/internal/pkg/events"
	baseModel "nepeats/pkg/model"

	"github.com/shopspring/decimal"
)

// 顾客侧订单状态
const (
	StatusDraft      = "draft"
	StatusPending    = "pending"
	StatusPreparing  = "preparing"
	StatusDelivering = "delivering"
	StatusCancelled  = "cancelled"
)

// 餐厅侧履约状态
const (
	RestaurantPending   = "pending"
	RestaurantAccepted  = "accepted"
	RestaurantPreparing = "preparing"
	RestaurantReady     = "ready"
	RestaurantRejected  = "rejected"
)

const (
	PaymentCash   = "cash"
	PaymentEsewa  = "esewa"
	PaymentKhalti = "khalti"

	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// DeliveryAddress 下单时复制的地址快照，之后修改地址簿不影响订单
type DeliveryAddress struct {
	Label    string  `json:"label"`
	Street   string  `json:"street"`
	City     string  `json:"city"`
	Area     string  `json:"area"`
	Landmark *string `json:"landmark,omitempty"`
	Phone    string  `json:"phone"`
}

// Order 订单
// Total = Subtotal + DeliveryCharge - DiscountAmount
type Order struct {
	baseModel.BaseModel
	UserID           string           `gorm:"type:uuid;index" json:"userId"`
	RestaurantID     string           `gorm:"type:uuid;index" json:"restaurantId"`
	Items            []OrderItem      `gorm:"foreignKey:OrderID" json:"items"`
	Subtotal         decimal.Decimal  `gorm:"type:numeric(12,2)" json:"subtotal"`
	DeliveryCharge   decimal.Decimal  `gorm:"type:numeric(12,2)" json:"deliveryCharge"`
	CouponCode       *string          `gorm:"size:50" json:"couponCode"`
	DiscountAmount   decimal.Decimal  `gorm:"type:numeric(12,2)" json:"discountAmount"`
	Total            decimal.Decimal  `gorm:"type:numeric(12,2)" json:"total"`
	DeliveryAddress  *DeliveryAddress `gorm:"type:jsonb;serializer:json" json:"deliveryAddress"`
	Status           string           `gorm:"size:20;index" json:"status"`
	RestaurantStatus string           `gorm:"size:20;index" json:"restaurantStatus"`
	PaymentMethod    string           `gorm:"size:20" json:"paymentMethod"`
	PaymentStatus    string           `gorm:"size:20" json:"paymentStatus"`
	TransactionID    *string          `json:"transactionId"`
	RejectionReason  *string          `json:"rejectionReason,omitempty"`
	PreparationTime  *int             `json:"preparationTime,omitempty"` // 分钟
}

// OrderItem 订单行，名称和单价为下单时快照
type OrderItem struct {
	baseModel.BaseModel
	OrderID   string          `gorm:"type:uuid;index" json:"orderId"`
	ProductID string          `gorm:"type:uuid" json:"productId"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
}

// LineTotal 行金额
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// OwnedBy 订单是否属于 userID
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

// IsPaid 支付已完成
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentCompleted
}

// Event 订单当前状态的事件快照
func (o *Order) Event(t events.Type) events.Event {
	e := events.New(t, o.ID)
	e.UserID = o.UserID
	e.RestaurantID = o.RestaurantID
	e.Status = o.Status
	e.RestaurantStatus = o.RestaurantStatus
	e.PaymentStatus = o.PaymentStatus
	e.PaymentMethod = o.PaymentMethod
	e.Total = o.Total
	return e
}
