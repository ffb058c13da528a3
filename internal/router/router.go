package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.kifu/internal/config"
	"sudooom.kifu/internal/handler"
	"sudooom.kifu/internal/health"
	"sudooom.kifu/internal/middleware"
	"sudooom.kifu/pkg/response"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	gameHandler *handler.GameHandler,
	archiveHandler *handler.ArchiveHandler,
	checker *health.Checker,
) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowCredentials,
	))
	r.NoRoute(response.NotFound)

	// 存活与就绪检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", gin.WrapH(checker))

	// API v1
	v1 := r.Group("/api/v1")
	{
		games := v1.Group("/games")
		{
			games.POST("", gameHandler.CreateGame)
			games.GET("/:id", gameHandler.GetGame)
			games.POST("/:id/hands", gameHandler.StartHand)
			games.GET("/:id/actions", gameHandler.Actions)
			games.POST("/:id/actions", gameHandler.Act)
			games.POST("/:id/undo", gameHandler.Undo)
			games.POST("/:id/win", gameHandler.Win)
			games.POST("/:id/draw", gameHandler.ExhaustiveDraw)
			games.GET("/:id/kifu", gameHandler.Kifu)
		}

		v1.POST("/recognize", gameHandler.Recognize)

		// 牌谱存档，未配置数据库时只有校验接口
		archive := v1.Group("/kifu")
		{
			archive.POST("/validate", archiveHandler.Validate)
			if archiveHandler.Enabled() {
				archive.GET("", archiveHandler.List)
				archive.GET("/:id", archiveHandler.Get)
			}
		}
	}

	return r
}
