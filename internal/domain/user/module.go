package user

import (
	"nepeats/internal/domain/user/handler"
	"nepeats/internal/domain/user/repository"
	"nepeats/internal/domain/user/service"
	"nepeats/internal/pkg/middleware"
	"nepeats/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户与地址簿模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 订单依赖用户与地址，最先初始化
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	addrRepo := repository.NewAddressRepository(ctx.DB)
	userService := service.NewUserService(userRepo)
	addrService := service.NewAddressService(userRepo, addrRepo, ctx.Tx, ctx.Geocoder)
	userHandler := handler.NewUserHandler(userService, addrService)

	// 2. 路由注册
	setupRoutes(ctx.Router, userHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	userGroup := r.Group("/users")
	userGroup.Use(middleware.AuthMiddleware())
	{
		userGroup.GET("/profile", h.GetProfile)
		userGroup.PUT("/profile", h.UpdateProfile)
	}

	addrGroup := r.Group("/addresses")
	addrGroup.Use(middleware.AuthMiddleware())
	{
		addrGroup.GET("", h.ListAddresses)
		addrGroup.POST("", h.CreateAddress)
		addrGroup.PUT("/:id", h.UpdateAddress)
		addrGroup.DELETE("/:id", h.DeleteAddress)
		addrGroup.PUT("/:id/default", h.SetDefaultAddress)
	}
}
