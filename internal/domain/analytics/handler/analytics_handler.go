package handler

import (
	"nepeats/internal/domain/analytics/service"
	"nepeats/internal/pkg/middleware"
	"nepeats/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
}

func NewAnalyticsHandler(s service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: s}
}

// Dashboard 餐厅概览
// @Summary 餐厅概览
// @Description 首次访问时自动创建待审核的餐厅资料
// @Tags Restaurant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=service.Dashboard}
// @Router /restaurant/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	data, err := h.service.Dashboard(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, data)
}

// Analytics 营收与热销
// @Summary 按月营收与热销菜品
// @Tags Restaurant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=service.Analytics}
// @Router /restaurant/analytics [get]
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	data, err := h.service.Analytics(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, data)
}
