package service

import (
	"fmt"
	"strings"
	"time"

	"nepeats/internal/domain/coupon/model"
	"nepeats/pkg/errs"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode 优惠码统一为去空格大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate 计算订单金额 amount 可享的折扣，不修改使用次数
// 折扣 = min(amount * discountPercent / 100, maxDiscount)，保留两位小数
func Evaluate(c *model.Coupon, amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !c.IsValid(now) {
		return decimal.Zero, errs.ErrCouponExpired
	}
	if amount.LessThan(c.MinOrderAmount) {
		return decimal.Zero, fmt.Errorf("%w: minimum order amount of NPR %s required",
			errs.ErrCouponBelowMinimum, c.MinOrderAmount.String())
	}

	discount := amount.Mul(c.DiscountPercent).Div(hundred)
	if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
		discount = *c.MaxDiscount
	}
	return discount.Round(2), nil
}
