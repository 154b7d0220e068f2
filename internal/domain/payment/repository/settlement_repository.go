package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	orderModel "nepeats/internal/domain/order/model"
	"nepeats/pkg/database"
	"nepeats/pkg/errs"

	"gorm.io/gorm"
)

// SettlementRepository 支付结果落库
type SettlementRepository interface {
	GetOrder(ctx context.Context, id string) (*orderModel.Order, error)
	// MarkPaid 未支付的订单标记为已支付，餐厅尚未开始备餐时推进到 preparing
	// 返回 false 表示订单不存在或已支付
	MarkPaid(ctx context.Context, id, transactionID string) (bool, error)
	// MarkFailed 仅作用于待支付订单
	MarkFailed(ctx context.Context, id string) (bool, error)
}

type settlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) GetOrder(ctx context.Context, id string) (*orderModel.Order, error) {
	var order orderModel.Order
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order not found", errs.ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

func (r *settlementRepository) MarkPaid(ctx context.Context, id, transactionID string) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&orderModel.Order{}).
		Where("id = ? AND payment_status <> ?", id, orderModel.PaymentCompleted).
		UpdateColumns(map[string]interface{}{
			"payment_status": orderModel.PaymentCompleted,
			"transaction_id": transactionID,
			"status": gorm.Expr("CASE WHEN restaurant_status IN (?, ?) THEN ? ELSE status END",
				orderModel.RestaurantPending, orderModel.RestaurantAccepted, orderModel.StatusPreparing),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *settlementRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&orderModel.Order{}).
		Where("id = ? AND payment_status = ?", id, orderModel.PaymentPending).
		UpdateColumns(map[string]interface{}{
			"payment_status": orderModel.PaymentFailed,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
