// Package fulfillment 餐厅履约状态机
// restaurantStatus 为主状态，顾客侧 status 只通过映射表写入
package fulfillment

import (
	"fmt"

	"nepeats/internal/domain/order/model"
	"nepeats/pkg/errs"
)

var transitions = map[string][]string{
	model.RestaurantPending:   {model.RestaurantAccepted, model.RestaurantPreparing, model.RestaurantRejected},
	model.RestaurantAccepted:  {model.RestaurantPreparing, model.RestaurantReady, model.RestaurantRejected},
	model.RestaurantPreparing: {model.RestaurantReady, model.RestaurantRejected},
	model.RestaurantReady:     nil,
	model.RestaurantRejected:  nil,
}

// customerStatus 餐厅状态对应的顾客侧状态
var customerStatus = map[string]string{
	model.RestaurantAccepted:  model.StatusPending,
	model.RestaurantPreparing: model.StatusPreparing,
	model.RestaurantReady:     model.StatusDelivering,
	model.RestaurantRejected:  model.StatusCancelled,
}

// Known 是否为合法的餐厅状态
func Known(status string) bool {
	_, ok := transitions[status]
	return ok
}

// Allowed from -> to 是否允许，相同状态视为允许
func Allowed(from, to string) bool {
	if from == to {
		return Known(from)
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CustomerStatus 餐厅状态映射的顾客侧状态，pending 没有映射
func CustomerStatus(restaurantStatus string) (string, bool) {
	s, ok := customerStatus[restaurantStatus]
	return s, ok
}

// Next 校验迁移并返回需要写入的顾客侧状态
// 状态不变时返回空串，只更新备注字段
func Next(from, to string) (string, error) {
	if !Known(to) {
		return "", fmt.Errorf("%w: unknown restaurant status %q", errs.ErrInvalidInput, to)
	}
	if from == to {
		return "", nil
	}
	if !Allowed(from, to) {
		return "", fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, from, to)
	}
	status, _ := CustomerStatus(to)
	return status, nil
}

// Terminal 是否为终态
func Terminal(status string) bool {
	next, ok := transitions[status]
	return ok && len(next) == 0
}
