package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
	chatService "github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	"github.com/zhouzirui/z-advisor/backend/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 54 * time.Second
)

// Handler WebSocket聊天处理器
type Handler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// New 创建WebSocket处理器，allowedOrigins 为空时接受任意来源
func New(chatSvc *chatService.Service, allowedOrigins []string, logger logrus.FieldLogger) *Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Handler{
		chatSvc: chatSvc,
		log:     logging.Component(logger, "websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(origins) == 0 {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
	Risk string `json:"risk,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection 串行化单个连接上的写操作
type connection struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *connection) send(kind string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(outgoingMessage{
		Type:      kind,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (c *connection) sendError(message string) error {
	return c.send("error", map[string]string{"message": message})
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	ctrl, err := h.chatSvc.Controller(sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("upgrade failed")
		return
	}
	defer raw.Close()

	logger := h.log.WithField("session", sessionID)
	logger.Info("new connection")

	conn := &connection{conn: raw, sessionID: sessionID}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, unsubscribe := ctrl.Conversation().Subscribe()
	defer unsubscribe()

	snapshot := ctrl.Conversation().Messages()
	if err := conn.send("connected", map[string]any{
		"state":    ctrl.State(),
		"messages": snapshot,
	}); err != nil {
		return
	}

	_ = raw.SetReadDeadline(time.Now().Add(readTimeout))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, raw)
	go h.forward(ctx, conn, updates, snapshot, logger)

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Warn("read error")
			}
			return
		}
		_ = raw.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			_ = conn.sendError("session mismatch")
			continue
		}

		h.handleMessage(conn, ctrl, &msg)
	}
}

// handleMessage 分发入站消息
func (h *Handler) handleMessage(conn *connection, ctrl *chatService.Controller, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			_ = conn.sendError("invalid text message")
			return
		}
		if _, ok := ctrl.Submit(chatService.Request{Text: text.Text, Risk: text.Risk}); !ok {
			_ = conn.send("ignored", map[string]string{"reason": "empty message"})
		}
	default:
		_ = conn.sendError("unsupported message type: " + msg.Type)
	}
}

// forward 推送会话中新追加的每条消息
func (h *Handler) forward(ctx context.Context, conn *connection, updates <-chan chat.Message, snapshot []chat.Message, logger logrus.FieldLogger) {
	seen := make(map[string]struct{}, len(snapshot))
	for _, msg := range snapshot {
		seen[msg.ID] = struct{}{}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			if _, dup := seen[msg.ID]; dup {
				continue
			}
			if err := conn.send("message", msg); err != nil {
				logger.WithError(err).Debug("write failed")
				return
			}
		}
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
