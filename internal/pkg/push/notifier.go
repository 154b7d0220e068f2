package push

import (
	"context"
	"fmt"

	"nepeats/internal/pkg/events"
)

// Notifier 把订单事件转换成发给下单用户的通知
type Notifier struct {
	svc PushService
}

func NewNotifier(svc PushService) *Notifier {
	return &Notifier{svc: svc}
}

var statusMessages = map[string]string{
	"pending":    "The restaurant accepted your order.",
	"preparing":  "Your food is being prepared.",
	"delivering": "Your order is on its way.",
	"cancelled":  "The restaurant could not take your order.",
}

func (n *Notifier) Publish(_ context.Context, e events.Event) error {
	title, body := message(e)
	if title == "" || e.UserID == "" {
		return nil
	}
	return n.svc.PushToAccount(e.UserID, title, body, map[string]string{
		"orderId": e.OrderID,
		"type":    string(e.Type),
	})
}

func message(e events.Event) (string, string) {
	switch e.Type {
	case events.OrderPaid:
		return "Payment received", fmt.Sprintf("We received NPR %s for your order.", e.Total.StringFixed(2))
	case events.OrderPaymentFailed:
		return "Payment failed", "Your payment did not go through. You can try again from your orders page."
	case events.OrderStatusChanged:
		if msg, ok := statusMessages[e.Status]; ok {
			return "Order update", msg
		}
	}
	return "", ""
}

var _ events.Publisher = (*Notifier)(nil)
