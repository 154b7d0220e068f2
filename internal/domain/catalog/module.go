package catalog

import (
	"nepeats/internal/domain/catalog/handler"
	"nepeats/internal/domain/catalog/repository"
	"nepeats/internal/domain/catalog/service"
	"nepeats/internal/pkg/middleware"
	"nepeats/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CatalogModule 餐厅与菜品模块
type CatalogModule struct{}

func init() {
	registry.Register(&CatalogModule{})
}

func (m *CatalogModule) Name() string {
	return "catalog"
}

func (m *CatalogModule) Priority() int {
	return 5
}

func (m *CatalogModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	restRepo := repository.NewRestaurantRepository(ctx.DB)
	productRepo := repository.NewProductRepository(ctx.DB)
	catalogService := service.NewCatalogService(restRepo, productRepo, ctx.Cache, ctx.Metrics)
	operatorService := service.NewOperatorService(restRepo, productRepo, catalogService)
	h := handler.NewCatalogHandler(catalogService, operatorService)

	// 2. 路由注册
	setupRoutes(ctx.Router, h)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CatalogHandler) {
	// 店面，公开
	r.GET("/restaurants", h.ListRestaurants)
	r.GET("/restaurants/:id", h.GetRestaurant)
	r.GET("/restaurants/:id/products", h.Menu)
	r.GET("/products/:id", h.GetProduct)

	// 餐厅运营
	op := r.Group("/restaurant")
	op.Use(middleware.AuthMiddleware(), middleware.RequireRole(middleware.RoleRestaurant))
	{
		op.PUT("/profile", h.UpdateProfile)
		op.GET("/products", h.ListProducts)
		op.POST("/products", h.CreateProduct)
		op.PUT("/products/:id", h.UpdateProduct)
		op.DELETE("/products/:id", h.DeleteProduct)
	}

	// 管理员审核
	admin := r.Group("/admin/restaurants")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("", h.AdminListRestaurants)
		admin.PUT("/:id/approval", h.SetApproval)
	}
}
