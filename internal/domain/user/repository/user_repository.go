package repository

import (
	"context"
	"errors"
	"fmt"

	"nepeats/internal/domain/user/model"
	"nepeats/pkg/database"
	"nepeats/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 接口定义
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	// Ensure 用户不存在时按令牌信息创建，已存在则不变
	Ensure(ctx context.Context, user *model.User) error
	UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) error
	// AppendOrder 追加订单到用户历史
	AppendOrder(ctx context.Context, userID, orderID string) error
}

// userRepository 实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建新的仓库实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Ensure(ctx context.Context, user *model.User) error {
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user).Error
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) error {
	res := database.Conn(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", errs.ErrNotFound, id)
	}
	return nil
}

func (r *userRepository) AppendOrder(ctx context.Context, userID, orderID string) error {
	res := database.Conn(ctx, r.db).Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn("order_ids", gorm.Expr("array_append(order_ids, ?)", orderID))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", errs.ErrNotFound, userID)
	}
	return nil
}
