package repository

import (
	"context"
	"errors"
	"fmt"

	"nepeats/internal/domain/order/model"
	"nepeats/pkg/database"
	"nepeats/pkg/errs"

	"gorm.io/gorm"
)

type OrderRepository interface {
	// Create 连同订单行一起写入
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	// ListByUser 不含草稿，按创建时间倒序
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Order, int64, error)
	// ListByRestaurant restaurantStatus 为空时不过滤
	ListByRestaurant(ctx context.Context, restaurantID, restaurantStatus string) ([]model.Order, error)
	GetForRestaurant(ctx context.Context, restaurantID, id string) (*model.Order, error)
	// UpdateFulfillment 仅当 restaurant_status 仍为 from 时更新，返回是否更新成功
	UpdateFulfillment(ctx context.Context, id, from string, fields map[string]interface{}) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return database.Conn(ctx, r.db).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := database.Conn(ctx, r.db).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order not found", errs.ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Order, int64, error) {
	db := database.Conn(ctx, r.db).Model(&model.Order{}).
		Where("user_id = ? AND status <> ?", userID, model.StatusDraft)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Order
	err := db.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *orderRepository) ListByRestaurant(ctx context.Context, restaurantID, restaurantStatus string) ([]model.Order, error) {
	db := database.Conn(ctx, r.db).Preload("Items").Where("restaurant_id = ?", restaurantID)
	if restaurantStatus != "" {
		db = db.Where("restaurant_status = ?", restaurantStatus)
	}

	var list []model.Order
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *orderRepository) GetForRestaurant(ctx context.Context, restaurantID, id string) (*model.Order, error) {
	var order model.Order
	err := database.Conn(ctx, r.db).Preload("Items").
		Where("id = ? AND restaurant_id = ?", id, restaurantID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order not found", errs.ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

// UpdateFulfillment 以当前状态为条件的更新，避免并发操作覆盖彼此
func (r *orderRepository) UpdateFulfillment(ctx context.Context, id, from string, fields map[string]interface{}) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&model.Order{}).
		Where("id = ? AND restaurant_status = ?", id, from).
		UpdateColumns(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
