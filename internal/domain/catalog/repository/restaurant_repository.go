package repository

import (
	"context"
	"errors"
	"fmt"

	"nepeats/internal/domain/catalog/model"
	"nepeats/pkg/database"
	"nepeats/pkg/errs"

	"gorm.io/gorm"
)

// RestaurantRepository 餐厅仓储
type RestaurantRepository interface {
	GetByID(ctx context.Context, id string) (*model.Restaurant, error)
	GetByUserID(ctx context.Context, userID string) (*model.Restaurant, error)
	// ListPublic 已审核且营业中的餐厅
	ListPublic(ctx context.Context, offset, limit int) ([]model.Restaurant, int64, error)
	// ListAll approved 为 nil 时不过滤
	ListAll(ctx context.Context, approved *bool) ([]model.Restaurant, error)
	Create(ctx context.Context, r *model.Restaurant) error
	Save(ctx context.Context, r *model.Restaurant) error
	SetApproval(ctx context.Context, id string, approved bool) error
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *restaurantRepository) GetByUserID(ctx context.Context, userID string) (*model.Restaurant, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *restaurantRepository) first(ctx context.Context, query string, arg string) (*model.Restaurant, error) {
	var rest model.Restaurant
	if err := database.Conn(ctx, r.db).Where(query, arg).First(&rest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: restaurant", errs.ErrNotFound)
		}
		return nil, err
	}
	return &rest, nil
}

func (r *restaurantRepository) ListPublic(ctx context.Context, offset, limit int) ([]model.Restaurant, int64, error) {
	var list []model.Restaurant
	var total int64

	q := database.Conn(ctx, r.db).Model(&model.Restaurant{}).Where("is_approved = true AND is_active = true")
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("rating DESC, created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *restaurantRepository) ListAll(ctx context.Context, approved *bool) ([]model.Restaurant, error) {
	var list []model.Restaurant
	q := database.Conn(ctx, r.db).Order("created_at DESC")
	if approved != nil {
		q = q.Where("is_approved = ?", *approved)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *restaurantRepository) Create(ctx context.Context, rest *model.Restaurant) error {
	err := database.Conn(ctx, r.db).Create(rest).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: restaurant already exists for user", errs.ErrConflict)
	}
	return err
}

func (r *restaurantRepository) Save(ctx context.Context, rest *model.Restaurant) error {
	return database.Conn(ctx, r.db).Save(rest).Error
}

func (r *restaurantRepository) SetApproval(ctx context.Context, id string, approved bool) error {
	res := database.Conn(ctx, r.db).Model(&model.Restaurant{}).Where("id = ?", id).Update("is_approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: restaurant %s", errs.ErrNotFound, id)
	}
	return nil
}
