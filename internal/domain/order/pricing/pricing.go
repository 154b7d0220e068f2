// Package pricing 订单计价，纯函数，不访问存储
package pricing

import "github.com/shopspring/decimal"

// Line 一行商品，Price 为下单时的单价快照
type Line struct {
	Price decimal.Decimal
	Qty   int
}

// Policy 配送费规则：小计达到 FreeDeliveryThreshold 免配送费，否则收取 DeliveryCharge
type Policy struct {
	FreeDeliveryThreshold decimal.Decimal
	DeliveryCharge        decimal.Decimal
}

// NewPolicy 由配置中的浮点数构造
func NewPolicy(threshold, charge float64) Policy {
	return Policy{
		FreeDeliveryThreshold: decimal.NewFromFloat(threshold),
		DeliveryCharge:        decimal.NewFromFloat(charge),
	}
}

// Breakdown 计价结果
type Breakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Discount       decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
}

// Subtotal Σ price * qty
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Qty))))
	}
	return sum
}

// DeliveryFee 小计对应的配送费
func (p Policy) DeliveryFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return p.DeliveryCharge
}

// Price 计算小计、配送费和应付总额
// 折扣被限制在 [0, subtotal]，总额不会低于配送费
func Price(lines []Line, policy Policy, discount decimal.Decimal) Breakdown {
	subtotal := Subtotal(lines)
	fee := policy.DeliveryFee(subtotal)

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return Breakdown{
		Subtotal:       subtotal,
		DeliveryCharge: fee,
		Discount:       discount,
		Total:          subtotal.Add(fee).Sub(discount),
	}
}
