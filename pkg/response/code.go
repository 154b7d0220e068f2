package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户与鉴权错误 100xx
	ErrUserNotFound = 10002
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005
	ErrNotFound     = 10006
	ErrConflict     = 10007

	// 优惠券错误 200xx
	ErrCouponNotFound     = 20001
	ErrCouponExpired      = 20002
	ErrCouponBelowMinimum = 20004

	// 订单错误 300xx
	ErrOutOfStock        = 30001
	ErrMultiRestaurant   = 30002
	ErrInvalidTransition = 30003

	// 支付错误 400xx
	ErrPaymentVerify    = 40001
	ErrPaymentTransport = 40002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
