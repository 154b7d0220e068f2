package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"nepeats/internal/domain/coupon/service"
	"nepeats/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CouponHandler struct {
	service service.CouponService
}

func NewCouponHandler(service service.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// Nullable 区分字段缺省与显式 null
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// CouponInput 新建/修改优惠码
type CouponInput struct {
	Code            *string                   `json:"code"`
	Description     *string                   `json:"description"`
	DiscountPercent *decimal.Decimal          `json:"discountPercent"`
	MaxDiscount     Nullable[decimal.Decimal] `json:"maxDiscount" swaggertype:"number"`
	MinOrderAmount  *decimal.Decimal          `json:"minOrderAmount"`
	ValidFrom       *time.Time                `json:"validFrom"`
	ValidTo         *time.Time                `json:"validTo"`
	IsActive        *bool                     `json:"isActive"`
	UsageLimit      Nullable[int]             `json:"usageLimit" swaggertype:"integer"`
}

func (in CouponInput) toService() service.CouponInput {
	return service.CouponInput{
		Code:             in.Code,
		Description:      in.Description,
		DiscountPercent:  in.DiscountPercent,
		MaxDiscount:      in.MaxDiscount.Value,
		ClearMaxDiscount: in.MaxDiscount.Set && in.MaxDiscount.Value == nil,
		MinOrderAmount:   in.MinOrderAmount,
		ValidFrom:        in.ValidFrom,
		ValidTo:          in.ValidTo,
		IsActive:         in.IsActive,
		UsageLimit:       in.UsageLimit.Value,
		ClearUsageLimit:  in.UsageLimit.Set && in.UsageLimit.Value == nil,
	}
}

// ValidateInput 校验优惠码输入
type ValidateInput struct {
	Code        string          `json:"code" binding:"required"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
}

// ListActive 当前可用的优惠码
// @Summary 可用优惠码
// @Tags Coupon
// @Produce json
// @Success 200 {object} response.Response{data=[]model.PublicCoupon}
// @Router /coupons [get]
func (h *CouponHandler) ListActive(c *gin.Context) {
	list, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// Validate 试算优惠码，不占用次数
// @Summary 校验优惠码
// @Tags Coupon
// @Accept json
// @Produce json
// @Param input body ValidateInput true "Code and order amount"
// @Success 200 {object} response.Response{data=service.ValidateResult}
// @Router /coupons/validate [post]
func (h *CouponHandler) Validate(c *gin.Context) {
	var input ValidateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.Validate(c.Request.Context(), input.Code, input.OrderAmount)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// ListAll 全部优惠码（含使用统计）
// @Summary 全部优惠码
// @Tags Coupon
// @Security Bearer
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Coupon}
// @Router /coupons/all [get]
func (h *CouponHandler) ListAll(c *gin.Context) {
	list, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// CreateCoupon 新建优惠码
// @Summary 新建优惠码
// @Tags Coupon
// @Security Bearer
// @Accept json
// @Produce json
// @Param input body CouponInput true "Coupon"
// @Success 201 {object} response.Response{data=model.Coupon}
// @Router /coupons [post]
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var input CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	coupon, err := h.service.Create(c.Request.Context(), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, coupon)
}

// UpdateCoupon 修改优惠码
// @Summary 修改优惠码
// @Tags Coupon
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "Coupon ID"
// @Param input body CouponInput true "Coupon"
// @Success 200 {object} response.Response{data=model.Coupon}
// @Router /coupons/{id} [put]
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	var input CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	coupon, err := h.service.Update(c.Request.Context(), c.Param("id"), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠码
// @Summary 删除优惠码
// @Tags Coupon
// @Security Bearer
// @Param id path string true "Coupon ID"
// @Success 200 {object} response.Response
// @Router /coupons/{id} [delete]
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Coupon deleted"})
}
