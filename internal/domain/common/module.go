package common

import (
	commonHandler "nepeats/internal/pkg/common"
	"nepeats/internal/pkg/middleware"
	"nepeats/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	h := commonHandler.NewUploadHandler(ctx.Uploader)
	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *commonHandler.UploadHandler) {
	// 图片上传，仅餐厅运营和管理员
	r.POST("/upload",
		middleware.AuthMiddleware(),
		middleware.RequireRole(middleware.RoleRestaurant, middleware.RoleAdmin),
		h.UploadFile,
	)
}
