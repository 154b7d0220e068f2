package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nepeats/internal/domain/catalog/model"
	"nepeats/pkg/database"
	"nepeats/pkg/errs"

	"gorm.io/gorm"
)

// ProductRepository 菜品仓储
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.Product, error)
	ListByRestaurant(ctx context.Context, restaurantID string, availableOnly bool) ([]model.Product, error)
	CountByRestaurant(ctx context.Context, restaurantID string) (int64, error)
	Create(ctx context.Context, p *model.Product) error
	Save(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, restaurantID, id string) error
	// Reserve 原子扣减库存，库存不足或已下架返回 ErrOutOfStock
	Reserve(ctx context.Context, id string, qty int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Product, error) {
	var list []model.Product
	if err := database.Conn(ctx, r.db).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	out := make(map[string]*model.Product, len(list))
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (r *productRepository) ListByRestaurant(ctx context.Context, restaurantID string, availableOnly bool) ([]model.Product, error) {
	var list []model.Product
	q := database.Conn(ctx, r.db).Where("restaurant_id = ?", restaurantID)
	if availableOnly {
		q = q.Where("is_available = true")
	}
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *productRepository) CountByRestaurant(ctx context.Context, restaurantID string) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&model.Product{}).Where("restaurant_id = ?", restaurantID).Count(&n).Error
	return n, err
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	return database.Conn(ctx, r.db).Create(p).Error
}

func (r *productRepository) Save(ctx context.Context, p *model.Product) error {
	return database.Conn(ctx, r.db).Save(p).Error
}

func (r *productRepository) Delete(ctx context.Context, restaurantID, id string) error {
	res := database.Conn(ctx, r.db).Where("id = ? AND restaurant_id = ?", id, restaurantID).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", errs.ErrNotFound, id)
	}
	return nil
}

func (r *productRepository) Reserve(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", errs.ErrInvalidInput)
	}

	db := database.Conn(ctx, r.db)
	// 条件更新：并发下不会超卖
	res := db.Model(&model.Product{}).
		Where("id = ? AND stock >= ? AND is_available = true", id, qty).
		UpdateColumns(map[string]interface{}{
			"stock":        gorm.Expr("stock - ?", qty),
			"in_stock":     gorm.Expr("stock - ? > 0", qty),
			"total_orders": gorm.Expr("total_orders + ?", qty),
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := db.Model(&model.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: product %s", errs.ErrNotFound, id)
	}
	return fmt.Errorf("%w: product %s", errs.ErrOutOfStock, id)
}
