package handler

import (
	"net/http"

	"nepeats/internal/domain/user/service"
	"nepeats/internal/pkg/middleware"
	"nepeats/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	users     service.UserService
	addresses service.AddressService
}

// NewUserHandler 创建处理器
func NewUserHandler(users service.UserService, addresses service.AddressService) *UserHandler {
	return &UserHandler{users: users, addresses: addresses}
}

// UpdateProfileInput 资料更新输入
type UpdateProfileInput struct {
	Name         string `json:"name"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
	ProfileImage string `json:"profileImage" binding:"omitempty,url"`
}

// GetProfile 获取当前用户资料
// @Summary 当前用户资料
// @Tags User
// @Security Bearer
// @Produce json
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentRole(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile 更新当前用户资料
// @Summary 更新资料
// @Tags User
// @Security Bearer
// @Accept json
// @Produce json
// @Param input body UpdateProfileInput true "Profile"
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentRole(c), service.ProfileInput{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		ProfileImage: input.ProfileImage,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}
