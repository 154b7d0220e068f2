package service

import (
	"context"
	"errors"
	"fmt"

	orderModel "nepeats/internal/domain/order/model"
	"nepeats/internal/domain/payment/repository"
	"nepeats/internal/domain/payment/strategy"
	"nepeats/internal/pkg/events"
	"nepeats/pkg/errs"
	"nepeats/pkg/logger"
	"nepeats/pkg/metrics"

	"go.uber.org/zap"
)

// 支付指标的结果标签
const (
	outcomeInitiated = "initiated"
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
	outcomeError     = "error"
)

// KhaltiVerifyInput 客户端提交的 Khalti 令牌，金额单位为 paisa
type KhaltiVerifyInput struct {
	OrderID string
	Token   string
	Amount  int64
}

// Settlement 结算结果
type Settlement struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

type PaymentService interface {
	// Initiate 为订单生成网关支付参数
	Initiate(ctx context.Context, userID, channel, orderID string) (interface{}, error)
	// Confirm 处理网关成功回调，验证通过后结算
	Confirm(ctx context.Context, channel string, params interface{}) (*Settlement, error)
	// Fail 处理网关失败回调，返回能解析出的订单号
	Fail(ctx context.Context, channel string, params interface{}) string
	// VerifyKhalti 先校验订单归属和金额，再调用 Khalti 校验令牌
	VerifyKhalti(ctx context.Context, userID string, input KhaltiVerifyInput) (*Settlement, error)
	RegisterStrategy(channel string, strategy strategy.PaymentStrategy)
}

type paymentService struct {
	repo       repository.SettlementRepository
	strategies map[string]strategy.PaymentStrategy
	events     events.Publisher
	metrics    *metrics.Collector
}

func NewPaymentService(repo repository.SettlementRepository, publisher events.Publisher, m *metrics.Collector) PaymentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &paymentService{
		repo:       repo,
		strategies: make(map[string]strategy.PaymentStrategy),
		events:     publisher,
		metrics:    m,
	}
}

// RegisterStrategy 注册支付策略
func (s *paymentService) RegisterStrategy(channel string, strategy strategy.PaymentStrategy) {
	s.strategies[channel] = strategy
}

func (s *paymentService) strategy(channel string) (strategy.PaymentStrategy, error) {
	st, ok := s.strategies[channel]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported payment channel %q", errs.ErrInvalidInput, channel)
	}
	return st, nil
}

func (s *paymentService) Initiate(ctx context.Context, userID, channel, orderID string) (interface{}, error) {
	st, err := s.strategy(channel)
	if err != nil {
		return nil, err
	}

	// 1. 订单必须属于当前用户且可支付
	order, err := s.payableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	// 2. 生成网关参数
	params, err := st.Pay(ctx, strategy.Checkout{OrderID: order.ID, Total: order.Total})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(channel, outcomeInitiated)
	logger.Log.Info("Payment initiated",
		zap.String("order_id", order.ID),
		zap.String("channel", channel),
		zap.String("total", order.Total.String()),
	)
	return params, nil
}

func (s *paymentService) Confirm(ctx context.Context, channel string, params interface{}) (*Settlement, error) {
	st, err := s.strategy(channel)
	if err != nil {
		return nil, err
	}

	n, err := st.Notify(ctx, params)
	if err != nil {
		s.metrics.RecordPayment(channel, outcome(err))
		return nil, err
	}
	return s.settle(ctx, channel, n)
}

func (s *paymentService) Fail(ctx context.Context, channel string, params interface{}) string {
	st, ok := s.strategies[channel]
	if !ok {
		return ""
	}
	resolver, ok := st.(strategy.OrderResolver)
	if !ok {
		return ""
	}

	orderID, err := resolver.ResolveOrder(params)
	if err != nil {
		logger.Log.Warn("Payment failure callback not resolvable", zap.String("channel", channel), zap.Error(err))
		return ""
	}

	applied, err := s.repo.MarkFailed(ctx, orderID)
	if err != nil {
		logger.Log.Error("Failed to mark payment failed", zap.String("order_id", orderID), zap.Error(err))
		return orderID
	}
	if !applied {
		return orderID
	}
	s.metrics.RecordPayment(channel, outcomeFailed)

	if order, err := s.repo.GetOrder(ctx, orderID); err == nil {
		s.publish(ctx, events.OrderPaymentFailed, order)
	}
	logger.Log.Info("Payment failed", zap.String("order_id", orderID), zap.String("channel", channel))
	return orderID
}

func (s *paymentService) VerifyKhalti(ctx context.Context, userID string, input KhaltiVerifyInput) (*Settlement, error) {
	if input.Token == "" || input.OrderID == "" {
		return nil, fmt.Errorf("%w: token and orderId are required", errs.ErrInvalidInput)
	}
	st, err := s.strategy(strategy.ChannelKhalti)
	if err != nil {
		return nil, err
	}

	// 1. 调用网关前先校验订单
	order, err := s.payableOrder(ctx, userID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if expected := strategy.ToPaisa(order.Total); input.Amount != expected {
		s.metrics.RecordPayment(strategy.ChannelKhalti, outcomeRejected)
		return nil, fmt.Errorf("%w: amount %d does not match order total %d", errs.ErrVerificationFailed, input.Amount, expected)
	}

	// 2. 网关校验
	n, err := st.Notify(ctx, strategy.KhaltiToken{OrderID: order.ID, Token: input.Token, Amount: input.Amount})
	if err != nil {
		s.metrics.RecordPayment(strategy.ChannelKhalti, outcome(err))
		return nil, err
	}
	return s.settle(ctx, strategy.ChannelKhalti, n)
}

// payableOrder 订单存在、属于 userID、未支付且未取消
func (s *paymentService) payableOrder(ctx context.Context, userID, orderID string) (*orderModel.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: access denied", errs.ErrForbidden)
	}
	if order.IsPaid() {
		return nil, fmt.Errorf("%w: order already paid", errs.ErrConflict)
	}
	if order.Status == orderModel.StatusCancelled {
		return nil, fmt.Errorf("%w: order was cancelled", errs.ErrConflict)
	}
	return order, nil
}

// settle 将验证通过的支付写入订单
// 同一交易号重复结算视为成功
func (s *paymentService) settle(ctx context.Context, channel string, n *strategy.Notification) (*Settlement, error) {
	order, err := s.repo.GetOrder(ctx, n.OrderID)
	if err != nil {
		s.metrics.RecordPayment(channel, outcomeRejected)
		return nil, err
	}
	if !n.Amount.IsZero() && !n.Amount.Equal(order.Total) {
		s.metrics.RecordPayment(channel, outcomeRejected)
		return nil, fmt.Errorf("%w: paid amount %s does not match order total %s",
			errs.ErrVerificationFailed, n.Amount.String(), order.Total.String())
	}
	if order.IsPaid() {
		return s.alreadySettled(order, n)
	}

	applied, err := s.repo.MarkPaid(ctx, order.ID, n.TransactionID)
	if err != nil {
		s.metrics.RecordPayment(channel, outcomeError)
		return nil, err
	}
	if !applied {
		// 并发回调已先完成结算
		if order, err = s.repo.GetOrder(ctx, n.OrderID); err != nil {
			return nil, err
		}
		return s.alreadySettled(order, n)
	}

	order.PaymentStatus = orderModel.PaymentCompleted
	order.TransactionID = &n.TransactionID
	if order.RestaurantStatus == orderModel.RestaurantPending || order.RestaurantStatus == orderModel.RestaurantAccepted {
		order.Status = orderModel.StatusPreparing
	}

	s.metrics.RecordPayment(channel, outcomeCompleted)
	s.publish(ctx, events.OrderPaid, order)
	logger.Log.Info("Payment completed",
		zap.String("order_id", order.ID),
		zap.String("channel", channel),
		zap.String("transaction_id", n.TransactionID),
	)
	return toSettlement(order), nil
}

func (s *paymentService) alreadySettled(order *orderModel.Order, n *strategy.Notification) (*Settlement, error) {
	if order.TransactionID != nil && *order.TransactionID == n.TransactionID {
		return toSettlement(order), nil
	}
	logger.Log.Warn("Duplicate payment for settled order",
		zap.String("order_id", order.ID),
		zap.String("transaction_id", n.TransactionID),
	)
	return nil, fmt.Errorf("%w: order already paid", errs.ErrConflict)
}

func (s *paymentService) publish(ctx context.Context, t events.Type, order *orderModel.Order) {
	if err := s.events.Publish(ctx, order.Event(t)); err != nil {
		logger.Log.Warn("Order event not published", zap.String("order_id", order.ID), zap.String("type", string(t)), zap.Error(err))
	}
}

func toSettlement(order *orderModel.Order) *Settlement {
	st := &Settlement{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}
	if order.TransactionID != nil {
		st.TransactionID = *order.TransactionID
	}
	return st
}

func outcome(err error) string {
	switch {
	case errors.Is(err, errs.ErrTransport):
		return outcomeError
	default:
		return outcomeRejected
	}
}
