package handler

import (
	"net/http"
	"strconv"

	"nepeats/internal/domain/catalog/service"
	"nepeats/internal/pkg/middleware"
	"nepeats/pkg/response"
	"nepeats/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog  service.CatalogService
	operator service.OperatorService
}

func NewCatalogHandler(catalog service.CatalogService, operator service.OperatorService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, operator: operator}
}

// ListRestaurants 已审核餐厅列表
// @Summary 餐厅列表
// @Tags Catalog
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /restaurants [get]
func (h *CatalogHandler) ListRestaurants(c *gin.Context) {
	var page utils.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.catalog.ListRestaurants(c.Request.Context(), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// GetRestaurant 餐厅详情
// @Summary 餐厅详情
// @Tags Catalog
// @Produce json
// @Param id path string true "Restaurant ID"
// @Success 200 {object} response.Response{data=model.Restaurant}
// @Router /restaurants/{id} [get]
func (h *CatalogHandler) GetRestaurant(c *gin.Context) {
	rest, err := h.catalog.GetRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, rest)
}

// Menu 餐厅菜单
// @Summary 餐厅菜单
// @Tags Catalog
// @Produce json
// @Param id path string true "Restaurant ID"
// @Success 200 {object} response.Response{data=[]model.Product}
// @Router /restaurants/{id}/products [get]
func (h *CatalogHandler) Menu(c *gin.Context) {
	menu, err := h.catalog.Menu(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, menu)
}

// GetProduct 菜品详情
// @Summary 菜品详情
// @Tags Catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, p)
}

// UpdateProfile 餐厅资料（不存在则创建）
// @Summary 更新餐厅资料
// @Tags Restaurant
// @Security Bearer
// @Accept json
// @Produce json
// @Param input body ProfileInput true "Profile"
// @Success 200 {object} response.Response{data=model.Restaurant}
// @Router /restaurant/profile [put]
func (h *CatalogHandler) UpdateProfile(c *gin.Context) {
	var input ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	rest, err := h.operator.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, rest)
}

// ListProducts 本店全部菜品
// @Summary 本店菜品
// @Tags Restaurant
// @Security Bearer
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Product}
// @Router /restaurant/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	list, err := h.operator.ListProducts(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// CreateProduct 新增菜品
// @Summary 新增菜品
// @Tags Restaurant
// @Security Bearer
// @Accept json
// @Produce json
// @Param input body ProductInput true "Product"
// @Success 201 {object} response.Response{data=model.Product}
// @Router /restaurant/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	p, err := h.operator.CreateProduct(c.Request.Context(), middleware.CurrentUserID(c), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, p)
}

// UpdateProduct 修改菜品
// @Summary 修改菜品
// @Tags Restaurant
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body ProductInput true "Product"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /restaurant/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	p, err := h.operator.UpdateProduct(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, p)
}

// DeleteProduct 删除菜品
// @Summary 删除菜品
// @Tags Restaurant
// @Security Bearer
// @Param id path string true "Product ID"
// @Success 200 {object} response.Response
// @Router /restaurant/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.operator.DeleteProduct(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Product deleted"})
}

// AdminListRestaurants 审核列表
// @Summary 餐厅审核列表
// @Tags Admin
// @Security Bearer
// @Produce json
// @Param approved query bool false "Filter by approval"
// @Success 200 {object} response.Response{data=[]model.Restaurant}
// @Router /admin/restaurants [get]
func (h *CatalogHandler) AdminListRestaurants(c *gin.Context) {
	var approved *bool
	if v := c.Query("approved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "approved must be a boolean")
			return
		}
		approved = &b
	}

	list, err := h.catalog.ListForReview(c.Request.Context(), approved)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// SetApproval 审核餐厅
// @Summary 审核餐厅
// @Tags Admin
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "Restaurant ID"
// @Param input body ApprovalInput true "Approval"
// @Success 200 {object} response.Response{data=model.Restaurant}
// @Router /admin/restaurants/{id}/approval [put]
func (h *CatalogHandler) SetApproval(c *gin.Context) {
	var input ApprovalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	rest, err := h.catalog.SetApproval(c.Request.Context(), c.Param("id"), *input.Approved)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, rest)
}
