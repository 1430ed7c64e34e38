package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/cookie-game/internal/config"
	"github.com/wfunc/cookie-game/internal/game"
	"github.com/wfunc/cookie-game/internal/middleware"
	ws "github.com/wfunc/cookie-game/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler 排行榜推送处理器
type WebSocketHandler struct {
	hub         *ws.Hub
	gameService *game.GameService
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, gameService *game.GameService, cfg *config.WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	readBuf, writeBuf, compression := 1024, 1024, false
	if cfg != nil {
		if cfg.ReadBufferSize > 0 {
			readBuf = cfg.ReadBufferSize
		}
		if cfg.WriteBufferSize > 0 {
			writeBuf = cfg.WriteBufferSize
		}
		compression = cfg.EnableCompression
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		hub:         hub,
		gameService: gameService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    readBuf,
			WriteBufferSize:   writeBuf,
			EnableCompression: compression,
			CheckOrigin: func(r *http.Request) bool {
				// 排行榜是公开数据
				return true
			},
		},
		logger: logger,
	}
}

// HubOptions 由WebSocket配置生成连接参数
func HubOptions(cfg *config.WebSocketConfig) ws.Options {
	if cfg == nil {
		return ws.DefaultOptions()
	}
	return ws.Options{
		WriteWait:      cfg.WriteTimeout,
		PongWait:       cfg.PongTimeout,
		MaxMessageSize: cfg.MaxMessageSize,
		Heartbeat:      cfg.PingInterval,
	}
}

// LeaderboardWebSocket 排行榜推送连接
// @Summary 排行榜实时推送
// @Description 连接后先收到 connected 和 leaderboard_snapshot，之后每次排行榜记录更新推送 leaderboard_update
// @Tags Leaderboard
// @Router /ws/leaderboard [get]
func (h *WebSocketHandler) LeaderboardWebSocket(c *gin.Context) {
	var userKey string
	identity := middleware.GetIdentity(c)
	if identity != nil {
		userKey = identity.ID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.String("user_key", userKey),
			zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, userKey)
	if h.gameService != nil {
		board, err := h.gameService.Leaderboard(c.Request.Context(), 0, identity)
		if err != nil {
			h.logger.Warn("获取排行榜快照失败", zap.Error(err))
		} else if err := client.Greet(ws.MessageTypeLeaderboardSnapshot, board); err != nil {
			h.logger.Warn("编码排行榜快照失败", zap.Error(err))
		}
	}

	if err := h.hub.Register(client); err != nil {
		h.logger.Warn("WebSocket注册失败", zap.Error(err))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.String("user_key", userKey),
		zap.String("ip", c.ClientIP()))
}

// GetOnlineCount 在线连接数
func (h *WebSocketHandler) GetOnlineCount(c *gin.Context) {
	ok(c, gin.H{"online_count": h.hub.GetOnlineCount()})
}
