package response

import (
	"errors"
	"net/http"

	"nepeats/pkg/errs"
	"nepeats/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Fail 业务失败响应 (HTTP 200, 业务码非 0)
func Fail(c *gin.Context, errCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

type errMapping struct {
	target   error
	httpCode int
	errCode  int
}

var errMappings = []errMapping{
	{errs.ErrNotFound, http.StatusNotFound, ErrNotFound},
	{errs.ErrUnauthorized, http.StatusUnauthorized, ErrTokenInvalid},
	{errs.ErrForbidden, http.StatusForbidden, ErrNoPermission},
	{errs.ErrInvalidInput, http.StatusBadRequest, ErrInvalidParam},
	{errs.ErrConflict, http.StatusConflict, ErrConflict},
	{errs.ErrOutOfStock, http.StatusBadRequest, ErrOutOfStock},
	{errs.ErrMultiRestaurant, http.StatusBadRequest, ErrMultiRestaurant},
	{errs.ErrCouponUnknown, http.StatusBadRequest, ErrCouponNotFound},
	{errs.ErrCouponExpired, http.StatusBadRequest, ErrCouponExpired},
	{errs.ErrCouponBelowMinimum, http.StatusBadRequest, ErrCouponBelowMinimum},
	{errs.ErrInvalidTransition, http.StatusConflict, ErrInvalidTransition},
	{errs.ErrVerificationFailed, http.StatusBadRequest, ErrPaymentVerify},
	{errs.ErrTransport, http.StatusBadGateway, ErrPaymentTransport},
}

// FromError 将业务错误映射为 HTTP 状态码和业务码
// 未归类的错误统一按 500 处理，不向调用方暴露细节
func FromError(c *gin.Context, err error) {
	for _, m := range errMappings {
		if errors.Is(err, m.target) {
			Error(c, m.httpCode, m.errCode, err.Error())
			return
		}
	}
	logger.Log.Error("unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	Error(c, http.StatusInternalServerError, ErrServerInternal, "Server Error")
}
