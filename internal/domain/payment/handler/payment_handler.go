package handler

import (
	"net/http"
	"net/url"
	"strings"

	"nepeats/internal/domain/payment/service"
	"nepeats/internal/domain/payment/strategy"
	"nepeats/internal/pkg/middleware"
	"nepeats/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service     service.PaymentService
	frontendURL string
}

func NewPaymentHandler(s service.PaymentService, frontendURL string) *PaymentHandler {
	return &PaymentHandler{service: s, frontendURL: strings.TrimRight(frontendURL, "/")}
}

type InitiateInput struct {
	OrderID string `json:"orderId" binding:"required"`
}

type KhaltiVerifyInput struct {
	Token   string `json:"token" binding:"required"`
	Amount  int64  `json:"amount" binding:"required,gt=0"`
	OrderID string `json:"orderId" binding:"required"`
}

// InitiateEsewa 生成 eSewa 支付表单
// @Summary 发起 eSewa 支付
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body InitiateInput true "Order"
// @Success 200 {object} response.Response{data=strategy.EsewaForm}
// @Router /payments/esewa/initiate [post]
func (h *PaymentHandler) InitiateEsewa(c *gin.Context) {
	h.initiate(c, strategy.ChannelEsewa)
}

// InitiateKhalti 生成 Khalti 组件参数
// @Summary 发起 Khalti 支付
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body InitiateInput true "Order"
// @Success 200 {object} response.Response{data=strategy.KhaltiWidget}
// @Router /payments/khalti/initiate [post]
func (h *PaymentHandler) InitiateKhalti(c *gin.Context) {
	h.initiate(c, strategy.ChannelKhalti)
}

func (h *PaymentHandler) initiate(c *gin.Context, channel string) {
	var input InitiateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	params, err := h.service.Initiate(c.Request.Context(), middleware.CurrentUserID(c), channel, input.OrderID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, params)
}

// VerifyKhalti 校验 Khalti 令牌
// @Summary 校验 Khalti 支付
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body KhaltiVerifyInput true "Token"
// @Success 200 {object} response.Response{data=service.Settlement}
// @Router /payments/khalti/verify [post]
func (h *PaymentHandler) VerifyKhalti(c *gin.Context) {
	var input KhaltiVerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.VerifyKhalti(c.Request.Context(), middleware.CurrentUserID(c), service.KhaltiVerifyInput{
		OrderID: input.OrderID,
		Token:   input.Token,
		Amount:  input.Amount,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// EsewaSuccess eSewa 成功回调
// 无论结果如何都重定向到前端，不向网关暴露错误
// @Summary eSewa 成功回调
// @Tags Payment
// @Param data query string true "base64 JSON"
// @Success 302
// @Router /payments/esewa/success [get]
func (h *PaymentHandler) EsewaSuccess(c *gin.Context) {
	result, err := h.service.Confirm(c.Request.Context(), strategy.ChannelEsewa, c.Query("data"))
	if err != nil {
		c.Redirect(http.StatusFound, h.failureURL(""))
		return
	}

	q := url.Values{}
	q.Set("orderId", result.OrderID)
	q.Set("refId", result.TransactionID)
	c.Redirect(http.StatusFound, h.frontendURL+"/payment/success?"+q.Encode())
}

// EsewaFailure eSewa 失败回调
// @Summary eSewa 失败回调
// @Tags Payment
// @Param data query string false "base64 JSON"
// @Success 302
// @Router /payments/esewa/failure [get]
func (h *PaymentHandler) EsewaFailure(c *gin.Context) {
	orderID := ""
	if data := c.Query("data"); data != "" {
		orderID = h.service.Fail(c.Request.Context(), strategy.ChannelEsewa, data)
	}
	c.Redirect(http.StatusFound, h.failureURL(orderID))
}

func (h *PaymentHandler) failureURL(orderID string) string {
	if orderID == "" {
		return h.frontendURL + "/payment/failure"
	}
	q := url.Values{}
	q.Set("orderId", orderID)
	return h.frontendURL + "/payment/failure?" + q.Encode()
}
