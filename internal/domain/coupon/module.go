package coupon

import (
	"nepeats/internal/domain/coupon/handler"
	"nepeats/internal/domain/coupon/repository"
	"nepeats/internal/domain/coupon/service"
	"nepeats/internal/pkg/middleware"
	"nepeats/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CouponModule 优惠券模块
type CouponModule struct{}

func init() {
	registry.Register(&CouponModule{})
}

func (m *CouponModule) Name() string {
	return "coupon"
}

func (m *CouponModule) Priority() int {
	return 10
}

func (m *CouponModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	cRepo := repository.NewCouponRepository(ctx.DB)
	cService := service.NewCouponService(cRepo)
	cHandler := handler.NewCouponHandler(cService)

	// 2. 路由注册
	setupRoutes(ctx.Router, cHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CouponHandler) {
	g := r.Group("/coupons")

	// 公开路由
	g.GET("", h.ListActive)
	g.POST("/validate", h.Validate)

	// 需要管理员权限的路由组
	admin := g.Group("")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/all", h.ListAll)
		admin.POST("", h.CreateCoupon)
		admin.PUT("/:id", h.UpdateCoupon)
		admin.DELETE("/:id", h.DeleteCoupon)
	}
}
