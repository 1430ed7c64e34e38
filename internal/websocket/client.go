package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/cookie-game/internal/logger"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrClientNotFound = errors.New("客户端未找到")
	ErrSendBufferFull = errors.New("发送缓冲区已满")
	ErrHubClosed      = errors.New("推送中心已关闭")
)

// Client 一个WebSocket连接
type Client struct {
	ID      string // 客户端ID
	UserKey string // 登录用户UID，匿名为空

	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	greetings [][]byte // 注册后紧跟connected发送
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn, userKey string) *Client {
	return &Client{
		ID:      uuid.NewString(),
		UserKey: userKey,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.opts.SendBuffer),
	}
}

// Greet 追加注册成功后立即下发的消息，只能在Register之前调用
func (c *Client) Greet(msgType string, payload interface{}) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	c.greetings = append(c.greetings, data)
	return nil
}

// trySend 只能在持有hub锁或Run协程内调用
func (c *Client) trySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// ReadPump 读取客户端消息，返回时注销，连接由WritePump关闭
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)

	opts := c.hub.opts
	c.conn.SetReadLimit(opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			return
		}

		if !c.handleMessage(message) {
			return
		}
	}
}

// WritePump 写出队列中的消息并定期发送ping
func (c *Client) WritePump() {
	opts := c.hub.opts
	ticker := time.NewTicker(opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if !ok {
				// Hub关闭了通道
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理客户端消息，返回false时断开连接
func (c *Client) handleMessage(data []byte) bool {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		c.hub.logger.Warn("解析WebSocket消息失败", zap.String("client_id", c.ID))
		c.sendError("消息格式错误")
		return false
	}
	logger.LogWebSocketMessage("receive", msg.Type, msg.Data)

	switch msg.Type {
	case MessageTypePing:
		_ = c.hub.SendToClient(c.ID, MessageTypePong, nil)
	case MessageTypePong:
	default:
		c.sendError("不支持的消息类型: " + msg.Type)
	}
	return true
}

// sendError 发送错误消息
func (c *Client) sendError(message string) {
	_ = c.hub.SendToClient(c.ID, MessageTypeError, map[string]string{"error": message})
}
