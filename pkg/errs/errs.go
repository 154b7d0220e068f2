package errs

import "errors"

// 业务错误分类，调用方通过 errors.Is 判断
// 具体信息用 fmt.Errorf("%w: ...") 包装
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrOutOfStock      = errors.New("out of stock")
	ErrMultiRestaurant = errors.New("items from multiple restaurants")

	ErrCouponUnknown      = errors.New("invalid coupon code")
	ErrCouponExpired      = errors.New("coupon is expired or inactive")
	ErrCouponBelowMinimum = errors.New("order amount below coupon minimum")

	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrTransport          = errors.New("payment provider unreachable")
)
