package model

import (
	"time"

	baseModel "nepeats/pkg/model"

	"github.com/shopspring/decimal"
)

// Coupon 优惠码
// 有效条件：启用、当前时间在 [ValidFrom, ValidTo] 内、未达使用上限
type Coupon struct {
	baseModel.BaseModel
	Code            string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Description     string           `gorm:"not null" json:"description"`
	DiscountPercent decimal.Decimal  `gorm:"type:numeric(5,2);not null" json:"discountPercent"`
	MaxDiscount     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"maxDiscount"` // nil 表示不封顶
	MinOrderAmount  decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"minOrderAmount"`
	ValidFrom       time.Time        `gorm:"not null" json:"validFrom"`
	ValidTo         time.Time        `gorm:"not null" json:"validTo"`
	IsActive        bool             `json:"isActive"`
	UsageLimit      *int             `json:"usageLimit"` // nil 表示不限次数
	UsedCount       int              `gorm:"not null" json:"usedCount"`
}

// IsValid 有效性判断，窗口两端均包含
func (c *Coupon) IsValid(now time.Time) bool {
	return c.IsActive &&
		!now.Before(c.ValidFrom) &&
		!now.After(c.ValidTo) &&
		(c.UsageLimit == nil || c.UsedCount < *c.UsageLimit)
}

// PublicCoupon 公开列表视图，不含使用统计
type PublicCoupon struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	Description     string           `json:"description"`
	DiscountPercent decimal.Decimal  `json:"discountPercent"`
	MaxDiscount     *decimal.Decimal `json:"maxDiscount"`
	MinOrderAmount  decimal.Decimal  `json:"minOrderAmount"`
	ValidFrom       time.Time        `json:"validFrom"`
	ValidTo         time.Time        `json:"validTo"`
}

func (c *Coupon) Public() PublicCoupon {
	return PublicCoupon{
		ID:              c.ID,
		Code:            c.Code,
		Description:     c.Description,
		DiscountPercent: c.DiscountPercent,
		MaxDiscount:     c.MaxDiscount,
		MinOrderAmount:  c.MinOrderAmount,
		ValidFrom:       c.ValidFrom,
		ValidTo:         c.ValidTo,
	}
}
