package handler

import (
	"net/http"

	"nepeats/internal/domain/user/service"
	"nepeats/internal/pkg/middleware"
	"nepeats/pkg/response"

	"github.com/gin-gonic/gin"
)

// Coordinates 前端地图选点
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AddressInput 新增/修改地址输入
type AddressInput struct {
	Label       string       `json:"label"`
	Street      string       `json:"street"`
	City        string       `json:"city"`
	Area        string       `json:"area"`
	Landmark    *string      `json:"landmark"`
	Phone       string       `json:"phone"`
	IsDefault   *bool        `json:"isDefault"`
	Coordinates *Coordinates `json:"coordinates"`
}

func (in AddressInput) toService() service.AddressInput {
	out := service.AddressInput{
		Label:     in.Label,
		Street:    in.Street,
		City:      in.City,
		Area:      in.Area,
		Landmark:  in.Landmark,
		Phone:     in.Phone,
		IsDefault: in.IsDefault,
	}
	// 0 坐标视为未提供
	if in.Coordinates != nil && in.Coordinates.Lat != 0 && in.Coordinates.Lng != 0 {
		out.Lat, out.Lng = &in.Coordinates.Lat, &in.Coordinates.Lng
	}
	return out
}

// ListAddresses 地址列表
// @Summary 地址列表
// @Tags Address
// @Security Bearer
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Address}
// @Router /addresses [get]
func (h *UserHandler) ListAddresses(c *gin.Context) {
	list, err := h.addresses.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// CreateAddress 新增地址
// @Summary 新增地址
// @Tags Address
// @Security Bearer
// @Accept json
// @Produce json
// @Param input body AddressInput true "Address"
// @Success 201 {object} response.Response{data=model.Address}
// @Router /addresses [post]
func (h *UserHandler) CreateAddress(c *gin.Context) {
	var input AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	addr, err := h.addresses.Create(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentRole(c), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, addr)
}

// UpdateAddress 修改地址
// @Summary 修改地址
// @Tags Address
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "Address ID"
// @Param input body AddressInput true "Address"
// @Success 200 {object} response.Response{data=model.Address}
// @Router /addresses/{id} [put]
func (h *UserHandler) UpdateAddress(c *gin.Context) {
	var input AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	addr, err := h.addresses.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, addr)
}

// DeleteAddress 删除地址
// @Summary 删除地址
// @Tags Address
// @Security Bearer
// @Param id path string true "Address ID"
// @Success 200 {object} response.Response
// @Router /addresses/{id} [delete]
func (h *UserHandler) DeleteAddress(c *gin.Context) {
	if err := h.addresses.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Address deleted successfully"})
}

// SetDefaultAddress 设为默认地址
// @Summary 设为默认地址
// @Tags Address
// @Security Bearer
// @Param id path string true "Address ID"
// @Success 200 {object} response.Response{data=model.Address}
// @Router /addresses/{id}/default [put]
func (h *UserHandler) SetDefaultAddress(c *gin.Context) {
	addr, err := h.addresses.SetDefault(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, addr)
}
