package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"nepeats/docs"
	"nepeats/internal/pkg/config"
	"nepeats/internal/pkg/geocode"
	"nepeats/internal/pkg/messaging"
	"nepeats/internal/pkg/middleware"
	"nepeats/internal/pkg/push"
	"nepeats/internal/pkg/registry"
	"nepeats/internal/pkg/uploader"
	"nepeats/internal/pkg/worker"
	"nepeats/pkg/cache"
	"nepeats/pkg/database"
	"nepeats/pkg/logger"
	"nepeats/pkg/metrics"

	// 各业务模块在 init 中注册
	_ "nepeats/internal/domain/analytics"
	_ "nepeats/internal/domain/catalog"
	_ "nepeats/internal/domain/common"
	_ "nepeats/internal/domain/coupon"
	_ "nepeats/internal/domain/order"
	_ "nepeats/internal/domain/payment"
	_ "nepeats/internal/domain/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg := config.GlobalConfig
	gin.SetMode(cfg.Server.Mode)

	// 1. 基础设施
	db, err := database.InitDatabase(cfg.Database, cfg.App.Debug)
	if err != nil {
		return err
	}
	rdb, err := database.InitRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// 2. 订单事件异步分发
	pool := worker.NewPool(4, 256)
	pool.OnDrop = func(task worker.Task, err error) {
		collector.RecordEventDropped(string(task.Event.Type))
	}
	closeSinks := addEventSinks(pool, cfg)
	defer closeSinks()
	pool.Start()
	defer pool.Stop()

	// 3. 路由与中间件
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.MetricsMiddleware(collector),
		middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(rate.Limit(20), 40)),
		cors.New(corsConfig(cfg.Server.AllowedOrigins)),
	)

	r.GET("/health", healthHandler(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	docs.SwaggerInfo.BasePath = "/"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 4. 业务模块
	moduleCtx := &registry.ModuleContext{
		DB:       db,
		Redis:    rdb,
		Router:   r,
		Tx:       database.NewTransactor(db),
		Cache:    cache.NewRedisCache(rdb, "nepeats:"),
		Events:   pool,
		Metrics:  collector,
		Geocoder: newGeocoder(cfg.Geocode),
		Uploader: newUploader(cfg.OSS),
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		return err
	}

	// 5. 启动与优雅退出
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// addEventSinks 按配置注册 RabbitMQ 和推送下游，返回关闭函数
func addEventSinks(pool *worker.Pool, cfg config.Config) func() {
	var closers []func() error

	if cfg.RabbitMQ.URL != "" {
		pub, err := messaging.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Log.Error("RabbitMQ unavailable, order events will not be published", zap.Error(err))
		} else {
			pool.AddSink("rabbitmq", pub)
			closers = append(closers, pub.Close)
		}
	}

	if cfg.Push.AccessKeyID != "" {
		svc, err := push.NewAliyunPushService(cfg.Push)
		if err != nil {
			logger.Log.Error("Push service unavailable", zap.Error(err))
		} else {
			pool.AddSink("push", push.NewNotifier(svc))
		}
	}

	return func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Log.Warn("Close event sink", zap.Error(err))
			}
		}
	}
}

// corsConfig 跨域配置，请求 ID 头与 TraceMiddleware 保持一致
func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func newGeocoder(cfg config.GeocodeConfig) geocode.Geocoder {
	if !cfg.Enabled {
		return geocode.Nop{}
	}
	return geocode.NewNominatimClient(cfg, rate.NewLimiter(rate.Every(cfg.MinInterval), 1))
}

// newUploader 未配置 OSS 时返回 nil，上传接口返回 503
func newUploader(cfg config.OSSConfig) uploader.Uploader {
	u, err := uploader.NewAliyunOSSUploader(cfg)
	if err != nil {
		logger.Log.Info("Image upload disabled", zap.Error(err))
		return nil
	}
	return u
}

func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"], status["status"], code = "down", "degraded", http.StatusServiceUnavailable
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			status["redis"], status["status"], code = "down", "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
