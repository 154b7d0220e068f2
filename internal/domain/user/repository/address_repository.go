package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nepeats/internal/domain/user/model"
	"nepeats/pkg/database"
	"nepeats/pkg/errs"

	"gorm.io/gorm"
)

// AddressRepository 地址仓储，列表按创建时间升序
type AddressRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.Address, error)
	Get(ctx context.Context, userID, id string) (*model.Address, error)
	// DefaultOrFirst 默认地址，没有默认时返回最早的地址，都没有返回 nil
	DefaultOrFirst(ctx context.Context, userID string) (*model.Address, error)
	Count(ctx context.Context, userID string) (int64, error)
	Create(ctx context.Context, addr *model.Address) error
	Save(ctx context.Context, addr *model.Address) error
	Delete(ctx context.Context, userID, id string) error
	ClearDefault(ctx context.Context, userID string) error
	MarkDefault(ctx context.Context, userID, id string) error
}

type addressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]model.Address, error) {
	var list []model.Address
	err := database.Conn(ctx, r.db).Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *addressRepository) Get(ctx context.Context, userID, id string) (*model.Address, error) {
	var addr model.Address
	err := database.Conn(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: address %s", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return &addr, nil
}

func (r *addressRepository) DefaultOrFirst(ctx context.Context, userID string) (*model.Address, error) {
	var list []model.Address
	err := database.Conn(ctx, r.db).Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC, id ASC").Limit(1).Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *addressRepository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&model.Address{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *addressRepository) Create(ctx context.Context, addr *model.Address) error {
	return database.Conn(ctx, r.db).Create(addr).Error
}

func (r *addressRepository) Save(ctx context.Context, addr *model.Address) error {
	return database.Conn(ctx, r.db).Save(addr).Error
}

func (r *addressRepository) Delete(ctx context.Context, userID, id string) error {
	res := database.Conn(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: address %s", errs.ErrNotFound, id)
	}
	return nil
}

func (r *addressRepository) ClearDefault(ctx context.Context, userID string) error {
	return database.Conn(ctx, r.db).Model(&model.Address{}).
		Where("user_id = ? AND is_default = true", userID).
		UpdateColumns(map[string]interface{}{"is_default": false, "updated_at": time.Now()}).Error
}

func (r *addressRepository) MarkDefault(ctx context.Context, userID, id string) error {
	return database.Conn(ctx, r.db).Model(&model.Address{}).
		Where("id = ? AND user_id = ?", id, userID).
		UpdateColumns(map[string]interface{}{"is_default": true, "updated_at": time.Now()}).Error
}
