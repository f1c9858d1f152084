package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/portfolio/portfolio-assistant/internal/middleware"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/portfolio/portfolio-assistant/internal/service"
	"go.uber.org/zap"
)

// WebSocketHandler 聊天窗口 WebSocket 处理器，每个连接一个会话
type WebSocketHandler struct {
	sessionService *service.SessionService
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler(sessionService *service.SessionService, origins middleware.OriginChecker, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		sessionService: sessionService,
		upgrader: websocket.Upgrader{
			CheckOrigin: origins.CheckRequest,
		},
		logger: logger,
	}
}

// HandleWebSocket WebSocket 连接入口
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	widget := model.NewWidgetConn(sessionID, c.ClientIP(), conn)
	bot := h.sessionService.Attach(widget)
	defer h.sessionService.Remove(sessionID)

	// 连接断开时取消还在等待的回复
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := widget.WriteFrame(model.ChatFrame{Type: model.FrameWelcome, Messages: bot.Messages()}); err != nil {
		h.logger.Warn("发送欢迎消息失败", zap.String("sessionId", sessionID), zap.Error(err))
		return
	}

	for {
		var frame model.ChatFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket 读取错误", zap.String("sessionId", sessionID), zap.Error(err))
			}
			break
		}
		// 任何帧都算活跃，心跳只是可选的
		h.sessionService.Touch(sessionID)
		h.handleFrame(ctx, widget, bot, &frame)
	}

	h.logger.Info("WebSocket 连接断开", zap.String("sessionId", sessionID))
}

// handleFrame 处理客户端帧
func (h *WebSocketHandler) handleFrame(ctx context.Context, widget *model.WidgetConn, bot *service.ChatbotService, frame *model.ChatFrame) {
	switch frame.Type {
	case model.FrameChat:
		if strings.TrimSpace(frame.Content) == "" {
			h.write(widget, model.ChatFrame{Type: model.FrameError, Content: service.ErrEmptyMessage.Error()})
			return
		}
		if bot.State() == service.StateAwaitingReply {
			h.write(widget, model.ChatFrame{Type: model.FrameError, Content: service.ErrRequestInFlight.Error()})
			return
		}
		h.write(widget, model.ChatFrame{Type: model.FrameTyping})

		// 异步等待回复，读循环继续处理 CANCEL
		go h.reply(ctx, widget, bot, frame.Content)

	case model.FrameCancel:
		if bot.CancelRequest() {
			h.write(widget, model.ChatFrame{Type: model.FrameCancelled, Messages: bot.Messages()})
		}

	case model.FrameClear:
		bot.ClearSession()
		h.write(widget, model.ChatFrame{Type: model.FrameCleared, Messages: bot.Messages()})

	case model.FrameHeartbeat:
		h.write(widget, model.ChatFrame{Type: model.FramePong})

	default:
		h.logger.Warn("未知消息类型",
			zap.String("sessionId", widget.SessionID),
			zap.String("type", frame.Type))
		h.write(widget, model.ChatFrame{Type: model.FrameError, Content: "unknown frame type"})
	}
}

func (h *WebSocketHandler) reply(ctx context.Context, widget *model.WidgetConn, bot *service.ChatbotService, content string) {
	resp, err := bot.SendMessage(ctx, content)
	switch {
	case errors.Is(err, service.ErrCancelled):
		// CANCEL/CLEAR 已经回过帧，连接断开时也无需回复
		return
	case err != nil:
		h.write(widget, model.ChatFrame{Type: model.FrameError, Content: err.Error()})
	default:
		h.write(widget, model.ChatFrame{Type: model.FrameReply, Reply: resp, Messages: bot.Messages()})
	}
}

func (h *WebSocketHandler) write(widget *model.WidgetConn, frame model.ChatFrame) {
	if err := widget.WriteFrame(frame); err != nil {
		h.logger.Debug("写入 WebSocket 失败",
			zap.String("sessionId", widget.SessionID),
			zap.String("type", frame.Type),
			zap.Error(err))
	}
}
