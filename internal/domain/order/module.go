package order

import (
	catalogRepo "nepeats/internal/domain/catalog/repository"
	catalogService "nepeats/internal/domain/catalog/service"
	couponRepo "nepeats/internal/domain/coupon/repository"
	couponService "nepeats/internal/domain/coupon/service"
	"nepeats/internal/domain/order/handler"
	"nepeats/internal/domain/order/pricing"
	"nepeats/internal/domain/order/repository"
	"nepeats/internal/domain/order/service"
	userRepo "nepeats/internal/domain/user/repository"
	"nepeats/internal/pkg/config"
	"nepeats/internal/pkg/middleware"
	"nepeats/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// OrderModule 下单与履约模块
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	// 依赖用户、菜品和优惠码
	return 15
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	restaurants := catalogRepo.NewRestaurantRepository(ctx.DB)
	products := catalogRepo.NewProductRepository(ctx.DB)
	menus := catalogService.NewCatalogService(restaurants, products, ctx.Cache, ctx.Metrics)
	coupons := couponService.NewCouponService(couponRepo.NewCouponRepository(ctx.DB))
	orders := repository.NewOrderRepository(ctx.DB)

	cfg := config.GlobalConfig.Order
	orderService := service.NewOrderService(service.Deps{
		Orders:    orders,
		Users:     userRepo.NewUserRepository(ctx.DB),
		Addresses: userRepo.NewAddressRepository(ctx.DB),
		Products:  products,
		Coupons:   coupons,
		Menus:     menus,
		Tx:        ctx.Tx,
		Events:    ctx.Events,
		Metrics:   ctx.Metrics,
		Policy:    pricing.NewPolicy(cfg.FreeDeliveryThreshold, cfg.DeliveryCharge),
	})
	fulfillmentService := service.NewFulfillmentService(orders, restaurants, ctx.Events, ctx.Metrics)
	h := handler.NewOrderHandler(orderService, fulfillmentService)

	// 2. 路由注册
	setupRoutes(ctx.Router, h)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	customer := r.Group("")
	customer.Use(middleware.AuthMiddleware())
	{
		customer.POST("/orders/quote", h.Quote)
		customer.POST("/orders", h.PlaceOrder)
		customer.GET("/orders", h.ListMine)
		customer.GET("/orders/:id", h.GetOrder)
		customer.GET("/receipts/:orderId/data", h.Receipt)
	}

	op := r.Group("/restaurant/orders")
	op.Use(middleware.AuthMiddleware(), middleware.RequireRole(middleware.RoleRestaurant))
	{
		op.GET("", h.RestaurantOrders)
		op.PUT("/:id", h.UpdateFulfillment)
	}
}
