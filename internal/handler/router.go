package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/portfolio/portfolio-assistant/internal/middleware"
	"go.uber.org/zap"
)

// Handlers 所有路由处理器
type Handlers struct {
	API        *APIHandler
	Chat       *ChatHandler
	Classifier *ClassifierHandler
	Contact    *ContactHandler
	WebSocket  *WebSocketHandler
}

// RouterConfig 路由级别的中间件配置
type RouterConfig struct {
	Origins       middleware.OriginChecker
	AdminToken    string
	SubmitLimiter *middleware.IPRateLimiter
}

// NewRouter 注册全部路由
func NewRouter(h Handlers, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS(cfg.Origins))

	r.GET("/ws/chat", h.WebSocket.HandleWebSocket)

	api := r.Group("/api")
	api.GET("/health", h.API.Health)
	api.GET("/profile", h.API.Profile)

	chat := api.Group("/chat")
	chat.POST("/sessions", h.Chat.CreateSession)
	chat.GET("/sessions/:id/messages", h.Chat.Messages)
	chat.POST("/sessions/:id/messages", h.Chat.SendMessage)
	chat.POST("/sessions/:id/cancel", h.Chat.Cancel)
	chat.DELETE("/sessions/:id/history", h.Chat.ClearHistory)
	chat.DELETE("/sessions/:id", h.Chat.DeleteSession)
	chat.GET("/quick-responses", h.Chat.QuickResponses)
	chat.GET("/suggestions", h.Chat.Suggestions)
	chat.GET("/classify", h.Classifier.Classify)

	if h.Contact != nil {
		submit := []gin.HandlerFunc{}
		if cfg.SubmitLimiter != nil {
			submit = append(submit, cfg.SubmitLimiter.Middleware())
		}
		api.POST("/contact", append(submit, h.Contact.Submit)...)

		admin := api.Group("/contact", middleware.AdminAuth(cfg.AdminToken))
		admin.GET("/messages", h.Contact.List)
		admin.GET("/messages/:id", h.Contact.Get)
		admin.PATCH("/messages/:id", h.Contact.UpdateStatus)
		admin.DELETE("/messages/:id", h.Contact.Delete)
		admin.GET("/stats", h.Contact.Stats)
	}

	return r
}
