package payment

import (
	"nepeats/internal/domain/payment/handler"
	"nepeats/internal/domain/payment/repository"
	"nepeats/internal/domain/payment/service"
	"nepeats/internal/domain/payment/strategy"
	"nepeats/internal/pkg/config"
	"nepeats/internal/pkg/middleware"
	"nepeats/internal/pkg/registry"
	"nepeats/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentModule 支付模块
type PaymentModule struct{}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	// 结算作用于订单，排在订单模块之后
	return 20
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	pService := service.NewPaymentService(repository.NewSettlementRepository(ctx.DB), ctx.Events, ctx.Metrics)

	// 2. 注册支付策略
	cfg := config.GlobalConfig
	if esewa, err := strategy.NewEsewaStrategy(cfg.Esewa); err != nil {
		logger.Log.Error("Failed to init eSewa strategy", zap.Error(err))
	} else {
		pService.RegisterStrategy(strategy.ChannelEsewa, esewa)
	}
	if khalti, err := strategy.NewKhaltiStrategy(cfg.Khalti, cfg.Frontend.URL); err != nil {
		logger.Log.Error("Failed to init Khalti strategy", zap.Error(err))
	} else {
		pService.RegisterStrategy(strategy.ChannelKhalti, khalti)
	}

	pHandler := handler.NewPaymentHandler(pService, cfg.Frontend.URL)

	// 3. 路由注册
	setupRoutes(ctx.Router, pHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PaymentHandler) {
	g := r.Group("/payments")

	// 网关回调 (无需鉴权，始终重定向)
	g.GET("/esewa/success", h.EsewaSuccess)
	g.GET("/esewa/failure", h.EsewaFailure)

	// 需要鉴权的接口
	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("/esewa/initiate", h.InitiateEsewa)
		auth.POST("/khalti/initiate", h.InitiateKhalti)
		auth.POST("/khalti/verify", h.VerifyKhalti)
	}
}
