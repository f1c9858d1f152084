package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/portfolio/portfolio-assistant/internal/responder"
	"github.com/portfolio/portfolio-assistant/internal/service"
	"go.uber.org/zap"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

// ChatHandler 无 WebSocket 时的 REST 会话接口
type ChatHandler struct {
	sessionService *service.SessionService
	profile        *model.Profile
	logger         *zap.Logger
}

// NewChatHandler 创建 REST 会话处理器
func NewChatHandler(sessionService *service.SessionService, profile *model.Profile, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		sessionService: sessionService,
		profile:        profile,
		logger:         logger,
	}
}

// CreateSession 新建会话，返回欢迎消息
func (h *ChatHandler) CreateSession(c *gin.Context) {
	id, bot := h.sessionService.Create()
	c.JSON(http.StatusCreated, gin.H{
		"sessionId": id,
		"messages":  bot.Messages(),
	})
}

// SendMessage 发送消息并同步等待回复
func (h *ChatHandler) SendMessage(c *gin.Context) {
	bot, ok := h.session(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request")
		return
	}

	resp, err := bot.SendMessage(c.Request.Context(), req.Content)
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrRequestInFlight), errors.Is(err, service.ErrCancelled):
		fail(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("处理消息失败", zap.String("sessionId", c.Param("id")), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Messages 会话消息和状态
func (h *ChatHandler) Messages(c *gin.Context) {
	bot, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages":    bot.Messages(),
		"state":       bot.State().String(),
		"askedTopics": bot.AskedTopics(),
		"rateWindow":  bot.RateWindow(),
	})
}

// Cancel 取消等待中的请求
func (h *ChatHandler) Cancel(c *gin.Context) {
	bot, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": bot.CancelRequest()})
}

// ClearHistory 清空对话，只保留欢迎消息
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	bot, ok := h.session(c)
	if !ok {
		return
	}
	bot.ClearSession()
	c.JSON(http.StatusOK, gin.H{"messages": bot.Messages()})
}

// DeleteSession 结束会话
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if !h.sessionService.Remove(c.Param("id")) {
		fail(c, http.StatusNotFound, service.ErrSessionNotFound.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// QuickResponses 快捷问题
func (h *ChatHandler) QuickResponses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quickResponses": responder.QuickResponses(h.profile)})
}

// Suggestions 追问建议；带 sessionId 且未指定 topic 时使用会话最近的主题
func (h *ChatHandler) Suggestions(c *gin.Context) {
	topic := c.Query("topic")
	if id := c.Query("sessionId"); id != "" {
		bot, err := h.sessionService.Get(id)
		if err != nil {
			fail(c, http.StatusNotFound, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": bot.SuggestedQuestions(topic)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": responder.SuggestedQuestions(topic)})
}

func (h *ChatHandler) session(c *gin.Context) (*service.ChatbotService, bool) {
	bot, err := h.sessionService.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return nil, false
	}
	return bot, true
}
