package handler

import (
	"net/http"

	"nepeats/internal/domain/order/model"
	"nepeats/internal/domain/order/service"
	"nepeats/internal/pkg/middleware"
	"nepeats/pkg/response"
	"nepeats/pkg/utils"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders      service.OrderService
	fulfillment service.FulfillmentService
}

func NewOrderHandler(orders service.OrderService, fulfillment service.FulfillmentService) *OrderHandler {
	return &OrderHandler{orders: orders, fulfillment: fulfillment}
}

type ItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Qty       int    `json:"qty"`
}

// PlaceOrderInput 下单请求
type PlaceOrderInput struct {
	Items             []ItemInput            `json:"items" binding:"required,min=1,dive"`
	PaymentMethod     string                 `json:"paymentMethod"`
	DeliveryAddressID string                 `json:"deliveryAddressId"`
	DeliveryAddress   *model.DeliveryAddress `json:"deliveryAddress"`
	CouponCode        string                 `json:"couponCode"`
	Status            string                 `json:"status"`
}

func (in PlaceOrderInput) toService() service.PlaceOrderInput {
	items := make([]service.ItemInput, len(in.Items))
	for i, it := range in.Items {
		items[i] = service.ItemInput{ProductID: it.ProductID, Qty: it.Qty}
	}
	return service.PlaceOrderInput{
		Items:             items,
		PaymentMethod:     in.PaymentMethod,
		DeliveryAddressID: in.DeliveryAddressID,
		DeliveryAddress:   in.DeliveryAddress,
		CouponCode:        in.CouponCode,
		Status:            in.Status,
	}
}

// FulfillmentInput 餐厅更新订单状态
type FulfillmentInput struct {
	RestaurantStatus string  `json:"restaurantStatus" binding:"required"`
	RejectionReason  *string `json:"rejectionReason"`
	PreparationTime  *int    `json:"preparationTime"`
}

// Quote 下单试算
// @Summary 订单试算
// @Tags Order
// @Security Bearer
// @Accept json
// @Produce json
// @Param input body PlaceOrderInput true "Cart"
// @Success 200 {object} response.Response{data=service.QuoteResult}
// @Router /orders/quote [post]
func (h *OrderHandler) Quote(c *gin.Context) {
	var input PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	q, err := h.orders.Quote(c.Request.Context(), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, q)
}

// PlaceOrder 下单
// @Summary 下单
// @Tags Order
// @Security Bearer
// @Accept json
// @Produce json
// @Param input body PlaceOrderInput true "Order"
// @Success 201 {object} response.Response{data=model.Order}
// @Router /orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var input PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	in := input.toService()
	in.Role = middleware.CurrentRole(c)
	order, err := h.orders.PlaceOrder(c.Request.Context(), middleware.CurrentUserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, order)
}

// ListMine 我的订单
// @Summary 我的订单
// @Tags Order
// @Security Bearer
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	var page utils.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.orders.ListMine(c.Request.Context(), middleware.CurrentUserID(c), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// GetOrder 订单详情
// @Summary 订单详情
// @Tags Order
// @Security Bearer
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response{data=model.Order}
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), middleware.CurrentUserID(c), isAdmin(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, order)
}

// Receipt 收据数据
// @Summary 收据数据
// @Tags Order
// @Security Bearer
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} response.Response{data=service.Receipt}
// @Router /receipts/{orderId}/data [get]
func (h *OrderHandler) Receipt(c *gin.Context) {
	r, err := h.orders.Receipt(c.Request.Context(), middleware.CurrentUserID(c), isAdmin(c), c.Param("orderId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, r)
}

// RestaurantOrders 本餐厅订单
// @Summary 餐厅订单列表
// @Tags Restaurant
// @Security Bearer
// @Produce json
// @Param status query string false "Restaurant status"
// @Success 200 {object} response.Response{data=[]model.Order}
// @Router /restaurant/orders [get]
func (h *OrderHandler) RestaurantOrders(c *gin.Context) {
	list, err := h.fulfillment.ListOrders(c.Request.Context(), middleware.CurrentUserID(c), c.Query("status"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// UpdateFulfillment 更新履约状态
// @Summary 更新订单状态
// @Tags Restaurant
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body FulfillmentInput true "Status"
// @Success 200 {object} response.Response{data=model.Order}
// @Router /restaurant/orders/{id} [put]
func (h *OrderHandler) UpdateFulfillment(c *gin.Context) {
	var input FulfillmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.fulfillment.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), service.FulfillmentInput{
		RestaurantStatus: input.RestaurantStatus,
		RejectionReason:  input.RejectionReason,
		PreparationTime:  input.PreparationTime,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, order)
}

func isAdmin(c *gin.Context) bool {
	return middleware.CurrentRole(c) == middleware.RoleAdmin
}
