package strategy

import (
	"context"

	"github.com/shopspring/decimal"
)

// 支付渠道
const (
	ChannelEsewa  = "esewa"
	ChannelKhalti = "khalti"
)

// Checkout 发起支付所需的订单信息
type Checkout struct {
	OrderID string
	Total   decimal.Decimal
}

// Notification 网关回调或校验的结果
type Notification struct {
	OrderID       string
	TransactionID string
	// Amount 网关上报的金额 (NPR)，为零表示未上报
	Amount  decimal.Decimal
	Success bool
}

type PaymentStrategy interface {
	// Pay 发起支付，返回前端提交给网关的参数
	Pay(ctx context.Context, checkout Checkout) (interface{}, error)

	// Notify 验证回调或令牌，返回解析后的订单号和交易号
	Notify(ctx context.Context, params interface{}) (*Notification, error)
}

// OrderResolver 可从未验签的失败回调中取出订单号的网关
type OrderResolver interface {
	ResolveOrder(params interface{}) (string, error)
}
