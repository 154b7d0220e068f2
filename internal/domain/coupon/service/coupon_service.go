package service

import (
	"context"
	"fmt"
	"time"

	"nepeats/internal/domain/coupon/model"
	"nepeats/internal/domain/coupon/repository"
	"nepeats/pkg/errs"
	"nepeats/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Quote 优惠码试算结果
type Quote struct {
	Coupon   *model.Coupon
	Discount decimal.Decimal
}

// ValidateResult 前端校验优惠码的返回
type ValidateResult struct {
	Valid           bool            `json:"valid"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	Message         string          `json:"message"`
}

// CouponInput 新建/修改优惠码，修改时 nil 字段保持原值
type CouponInput struct {
	Code             *string
	Description      *string
	DiscountPercent  *decimal.Decimal
	MaxDiscount      *decimal.Decimal
	ClearMaxDiscount bool
	MinOrderAmount   *decimal.Decimal
	ValidFrom        *time.Time
	ValidTo          *time.Time
	IsActive         *bool
	UsageLimit       *int
	ClearUsageLimit  bool
}

type CouponService interface {
	// Preview 只计算折扣，不占用次数
	Preview(ctx context.Context, code string, amount decimal.Decimal) (*Quote, error)
	// Apply 计算折扣并占用一次使用次数，应在下单事务内调用
	Apply(ctx context.Context, code string, amount decimal.Decimal) (*Quote, error)
	Validate(ctx context.Context, code string, amount decimal.Decimal) (*ValidateResult, error)

	ListActive(ctx context.Context) ([]model.PublicCoupon, error)
	ListAll(ctx context.Context) ([]model.Coupon, error)
	Create(ctx context.Context, input CouponInput) (*model.Coupon, error)
	Update(ctx context.Context, id string, input CouponInput) (*model.Coupon, error)
	Delete(ctx context.Context, id string) error
}

type couponService struct {
	repo repository.CouponRepository
	now  func() time.Time
}

func NewCouponService(repo repository.CouponRepository) CouponService {
	return &couponService{repo: repo, now: time.Now}
}

func (s *couponService) Preview(ctx context.Context, code string, amount decimal.Decimal) (*Quote, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, errs.ErrCouponUnknown
	}
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	discount, err := Evaluate(c, amount, s.now())
	if err != nil {
		return nil, err
	}
	return &Quote{Coupon: c, Discount: discount}, nil
}

func (s *couponService) Apply(ctx context.Context, code string, amount decimal.Decimal) (*Quote, error) {
	q, err := s.Preview(ctx, code, amount)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.Consume(ctx, q.Coupon.ID, s.now())
	if err != nil {
		return nil, err
	}
	// 读取后被并发请求用完或停用
	if !ok {
		return nil, fmt.Errorf("%w: usage limit reached", errs.ErrCouponExpired)
	}
	q.Coupon.UsedCount++
	return q, nil
}

func (s *couponService) Validate(ctx context.Context, code string, amount decimal.Decimal) (*ValidateResult, error) {
	q, err := s.Preview(ctx, code, amount)
	if err != nil {
		return nil, err
	}
	return &ValidateResult{
		Valid:           true,
		Code:            q.Coupon.Code,
		DiscountPercent: q.Coupon.DiscountPercent,
		DiscountAmount:  q.Discount,
		Message:         "Coupon applied successfully!",
	}, nil
}

func (s *couponService) ListActive(ctx context.Context) ([]model.PublicCoupon, error) {
	list, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]model.PublicCoupon, 0, len(list))
	for i := range list {
		out = append(out, list[i].Public())
	}
	return out, nil
}

func (s *couponService) ListAll(ctx context.Context) ([]model.Coupon, error) {
	return s.repo.ListAll(ctx)
}

func (s *couponService) Create(ctx context.Context, input CouponInput) (*model.Coupon, error) {
	if input.Code == nil || NormalizeCode(*input.Code) == "" || input.Description == nil ||
		input.DiscountPercent == nil || input.ValidTo == nil {
		return nil, fmt.Errorf("%w: code, description, discountPercent and validTo are required", errs.ErrInvalidInput)
	}

	c := &model.Coupon{
		ValidFrom: s.now(),
		IsActive:  true,
	}
	apply(c, input)
	if err := check(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.Log.Info("Coupon created", zap.String("code", c.Code))
	return c, nil
}

func (s *couponService) Update(ctx context.Context, id string, input CouponInput) (*model.Coupon, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(c, input)
	if err := check(c); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *couponService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func apply(c *model.Coupon, in CouponInput) {
	if in.Code != nil {
		c.Code = NormalizeCode(*in.Code)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.DiscountPercent != nil {
		c.DiscountPercent = *in.DiscountPercent
	}
	if in.MaxDiscount != nil {
		c.MaxDiscount = in.MaxDiscount
	} else if in.ClearMaxDiscount {
		c.MaxDiscount = nil
	}
	if in.MinOrderAmount != nil {
		c.MinOrderAmount = *in.MinOrderAmount
	}
	if in.ValidFrom != nil {
		c.ValidFrom = *in.ValidFrom
	}
	if in.ValidTo != nil {
		c.ValidTo = *in.ValidTo
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.UsageLimit != nil {
		c.UsageLimit = in.UsageLimit
	} else if in.ClearUsageLimit {
		c.UsageLimit = nil
	}
}

func check(c *model.Coupon) error {
	switch {
	case c.Code == "":
		return fmt.Errorf("%w: code is required", errs.ErrInvalidInput)
	case c.DiscountPercent.IsNegative() || c.DiscountPercent.GreaterThan(hundred):
		return fmt.Errorf("%w: discountPercent must be within [0, 100]", errs.ErrInvalidInput)
	case c.MaxDiscount != nil && c.MaxDiscount.IsNegative():
		return fmt.Errorf("%w: maxDiscount must not be negative", errs.ErrInvalidInput)
	case c.MinOrderAmount.IsNegative():
		return fmt.Errorf("%w: minOrderAmount must not be negative", errs.ErrInvalidInput)
	case c.UsageLimit != nil && *c.UsageLimit < 0:
		return fmt.Errorf("%w: usageLimit must not be negative", errs.ErrInvalidInput)
	case c.ValidTo.Before(c.ValidFrom):
		return fmt.Errorf("%w: validTo must not be before validFrom", errs.ErrInvalidInput)
	}
	return nil
}
