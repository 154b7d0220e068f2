package analytics

import (
	"nepeats/internal/domain/analytics/handler"
	"nepeats/internal/domain/analytics/repository"
	"nepeats/internal/domain/analytics/service"
	catalogRepo "nepeats/internal/domain/catalog/repository"
	catalogService "nepeats/internal/domain/catalog/service"
	userRepo "nepeats/internal/domain/user/repository"
	"nepeats/internal/pkg/config"
	"nepeats/internal/pkg/middleware"
	"nepeats/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// AnalyticsModule 餐厅概览与统计
type AnalyticsModule struct{}

func init() {
	registry.Register(&AnalyticsModule{})
}

func (m *AnalyticsModule) Name() string {
	return "analytics"
}

func (m *AnalyticsModule) Priority() int {
	return 25
}

func (m *AnalyticsModule) Init(ctx *registry.ModuleContext) error {
	// 1. 聚合查询走 sqlx，与 gorm 共用连接池
	sqlDB, err := ctx.DB.DB()
	if err != nil {
		return err
	}
	repo := repository.NewAnalyticsRepository(sqlx.NewDb(sqlDB, "postgres"))

	// 2. 依赖注入
	restaurants := catalogRepo.NewRestaurantRepository(ctx.DB)
	products := catalogRepo.NewProductRepository(ctx.DB)
	catalog := catalogService.NewCatalogService(restaurants, products, ctx.Cache, ctx.Metrics)
	operator := catalogService.NewOperatorService(restaurants, products, catalog)

	svc := service.NewAnalyticsService(repo, operator, restaurants, userRepo.NewUserRepository(ctx.DB),
		config.GlobalConfig.Order.CommissionPercent)
	h := handler.NewAnalyticsHandler(svc)

	// 3. 路由注册
	setupRoutes(ctx.Router, h)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.AnalyticsHandler) {
	op := r.Group("/restaurant")
	op.Use(middleware.AuthMiddleware(), middleware.RequireRole(middleware.RoleRestaurant))
	{
		op.GET("/dashboard", h.Dashboard)
		op.GET("/analytics", h.Analytics)
	}
}
