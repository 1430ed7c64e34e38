package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/cookie-game/internal/config"
	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/game"
	"github.com/wfunc/cookie-game/internal/middleware"
	"github.com/wfunc/cookie-game/internal/service"
	ws "github.com/wfunc/cookie-game/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RouterConfig 路由器依赖
type RouterConfig struct {
	DB         *gorm.DB
	Services   *service.Services
	Game       *game.GameService
	Hub        *ws.Hub
	WebSocket  *config.WebSocketConfig
	AllowReset bool
	Logger     *zap.Logger
}

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	game           *game.GameService
	hub            *ws.Hub
	wsPath         string
	allowReset     bool
	authHandler    *AuthHandler
	gameHandler    *GameHandler
	boardHandler   *LeaderboardHandler
	wsHandler      *WebSocketHandler
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(cfg *RouterConfig) *Router {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())

	wsPath := "/ws/leaderboard"
	if cfg.WebSocket != nil && cfg.WebSocket.Path != "" {
		wsPath = cfg.WebSocket.Path
	}

	router := &Router{
		engine:         engine,
		db:             cfg.DB,
		game:           cfg.Game,
		hub:            cfg.Hub,
		wsPath:         wsPath,
		allowReset:     cfg.AllowReset,
		authHandler:    NewAuthHandler(cfg.Services.Auth, cfg.Services.User),
		gameHandler:    NewGameHandler(cfg.Game),
		boardHandler:   NewLeaderboardHandler(cfg.Game),
		wsHandler:      NewWebSocketHandler(cfg.Hub, cfg.Game, cfg.WebSocket, log.Named("websocket")),
		authMiddleware: middleware.NewAuthMiddleware(cfg.Services.Auth),
		log:            log,
	}

	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		// 认证相关路由
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.POST("/logout", r.authHandler.Logout)
				authRequired.GET("/profile", r.authHandler.GetProfile)
				authRequired.PUT("/profile", r.authHandler.UpdateProfile)
				authRequired.PUT("/password", r.authHandler.UpdatePassword)
			}
		}

		v1.GET("/catalog", r.gameHandler.Catalog)

		// 游戏路由，未登录时使用本机存档槽
		gameGroup := v1.Group("/game")
		gameGroup.Use(r.authMiddleware.OptionalAuth())
		{
			gameGroup.POST("/session", r.gameHandler.OpenSession)
			gameGroup.GET("/session", r.gameHandler.GetSession)
			gameGroup.DELETE("/session", r.gameHandler.CloseSession)
			gameGroup.GET("/state", r.gameHandler.GetState)
			gameGroup.POST("/click", r.gameHandler.Click)
			gameGroup.POST("/buildings/:id/buy", r.gameHandler.BuyBuilding)
			gameGroup.POST("/upgrades/:id/buy", r.gameHandler.BuyUpgrade)
			gameGroup.POST("/prestige", r.gameHandler.Prestige)
			gameGroup.POST("/save", r.gameHandler.Save)
			if r.allowReset {
				gameGroup.POST("/reset", r.gameHandler.Reset)
			}
		}

		v1.GET("/leaderboard", r.authMiddleware.OptionalAuth(), r.boardHandler.GetLeaderboard)
		v1.GET("/online", r.wsHandler.GetOnlineCount)
	}

	// WebSocket路由
	r.engine.GET(r.wsPath, r.authMiddleware.OptionalAuth(), r.wsHandler.LeaderboardWebSocket)

	// 文档
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		appErr := apperrors.New(apperrors.ErrNotFound, "接口不存在: "+c.Request.URL.Path)
		appErr.Stack = nil
		c.JSON(http.StatusNotFound, apperrors.NewErrorResponse(appErr, middleware.GetRequestID(c)))
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	status := gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	}
	if r.hub != nil {
		status["online"] = r.hub.GetOnlineCount()
	}
	if r.game != nil {
		status["sessions"] = r.game.Sessions().ActiveSessions()
	}

	if r.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := r.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			r.log.Warn("健康检查数据库失败", zap.Error(err))
			status["status"] = "unhealthy"
			status["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	c.JSON(http.StatusOK, status)
}

// Handler 返回HTTP处理器
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
