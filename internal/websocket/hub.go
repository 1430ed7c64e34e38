package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/cookie-game/internal/logger"
	"github.com/wfunc/cookie-game/internal/models"
	"go.uber.org/zap"
)

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`           // 消息类型
	Data      json.RawMessage `json:"data,omitempty"` // 消息数据
	Timestamp int64           `json:"timestamp"`      // 毫秒时间戳
}

// 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"

	// 排行榜消息
	MessageTypeLeaderboardSnapshot = "leaderboard_snapshot"
	MessageTypeLeaderboardUpdate   = "leaderboard_update"
)

// Options 连接参数
type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
	Heartbeat      time.Duration
}

// DefaultOptions 默认连接参数
func DefaultOptions() Options {
	return Options{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 8 * 1024,
		SendBuffer:     64,
		Heartbeat:      30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = d.PongWait
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = d.MaxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = d.Heartbeat
	}
	return o
}

// pingPeriod 必须小于PongWait
func (o Options) pingPeriod() time.Duration {
	return o.PongWait * 9 / 10
}

// Hub 排行榜推送中心，所有连接共享同一条变更流
type Hub struct {
	clients   map[string]*Client
	clientsMu sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	opts   Options
	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(log *zap.Logger, opts Options) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		opts:       opts.withDefaults(),
		logger:     log,
	}
}

// Run 运行Hub，ctx 取消时关闭全部连接
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.opts.Heartbeat)
	defer ticker.Stop()
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case data := <-h.broadcast:
			h.fanout(data)

		case <-ticker.C:
			if data, err := encode(MessageTypePing, nil); err == nil {
				h.fanout(data)
			}
		}
	}
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.clientsMu.Lock()
		for id, client := range h.clients {
			close(client.send)
			delete(h.clients, id)
		}
		h.clientsMu.Unlock()
		h.logger.Info("WebSocket推送中心已停止")
	})
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.String("user_key", client.UserKey))

	if data, err := encode(MessageTypeConnected, map[string]string{"client_id": client.ID}); err == nil {
		client.trySend(data)
	}
	for _, data := range client.greetings {
		client.trySend(data)
	}
	client.greetings = nil
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.send)
	}
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端断开",
		zap.String("client_id", client.ID),
		zap.String("user_key", client.UserKey))
}

// fanout 发给所有连接，缓冲区满的连接跳过本条
func (h *Hub) fanout(data []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for _, client := range h.clients {
		if !client.trySend(data) {
			h.logger.Warn("客户端发送缓冲区满", zap.String("client_id", client.ID))
		}
	}
}

// Register 注册客户端
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast 广播消息，不阻塞调用方
func (h *Hub) Broadcast(msgType string, payload interface{}) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- data:
		logger.LogWebSocketMessage("send", msgType, payload)
		return nil
	default:
		return ErrSendBufferFull
	}
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, msgType string, payload interface{}) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	client, ok := h.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}
	if !client.trySend(data) {
		return ErrSendBufferFull
	}
	return nil
}

// LeaderboardUpdated 排行榜记录变更后推送给所有连接
func (h *Hub) LeaderboardUpdated(entry *models.LeaderboardEntry) {
	if err := h.Broadcast(MessageTypeLeaderboardUpdate, entry); err != nil {
		h.logger.Warn("排行榜推送失败",
			zap.String("user_key", entry.UserKey),
			zap.Error(err))
	}
}

// GetOnlineCount 获取在线连接数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	msg := Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}
