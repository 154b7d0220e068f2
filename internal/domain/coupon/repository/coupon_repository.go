package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nepeats/internal/domain/coupon/model"
	"nepeats/pkg/database"
	"nepeats/pkg/errs"

	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	Save(ctx context.Context, coupon *model.Coupon) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Coupon, error)
	// GetByCode code 需已转为大写
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	ListActive(ctx context.Context, now time.Time) ([]model.Coupon, error)
	ListAll(ctx context.Context) ([]model.Coupon, error)
	// Consume 条件自增 used_count，券已失效或达到上限时返回 false
	Consume(ctx context.Context, id string, now time.Time) (bool, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	err := database.Conn(ctx, r.db).Create(coupon).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: coupon code already exists", errs.ErrConflict)
	}
	return err
}

func (r *couponRepository) Save(ctx context.Context, coupon *model.Coupon) error {
	err := database.Conn(ctx, r.db).Save(coupon).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: coupon code already exists", errs.ErrConflict)
	}
	return err
}

func (r *couponRepository) Delete(ctx context.Context, id string) error {
	res := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&model.Coupon{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: coupon not found", errs.ErrNotFound)
	}
	return nil
}

func (r *couponRepository) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	return r.first(ctx, "id = ?", id, errs.ErrNotFound)
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.first(ctx, "code = ?", code, errs.ErrCouponUnknown)
}

func (r *couponRepository) first(ctx context.Context, query, arg string, notFound error) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := database.Conn(ctx, r.db).Where(query, arg).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) ListActive(ctx context.Context, now time.Time) ([]model.Coupon, error) {
	var list []model.Coupon
	err := database.Conn(ctx, r.db).
		Where("is_active = true AND valid_from <= ? AND valid_to >= ?", now, now).
		Order("valid_to ASC").Find(&list).Error
	return list, err
}

func (r *couponRepository) ListAll(ctx context.Context) ([]model.Coupon, error) {
	var list []model.Coupon
	err := database.Conn(ctx, r.db).Order("created_at DESC").Find(&list).Error
	return list, err
}

// Consume 乐观条件更新，并发下 used_count 不会超过 usage_limit
func (r *couponRepository) Consume(ctx context.Context, id string, now time.Time) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&model.Coupon{}).
		Where("id = ? AND is_active = true AND valid_from <= ? AND valid_to >= ?", id, now, now).
		Where("usage_limit IS NULL OR used_count < usage_limit").
		UpdateColumns(map[string]interface{}{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
