package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/portfolio/portfolio-assistant/internal/service"
	"go.uber.org/zap"
)

const healthPingTimeout = 2 * time.Second

// Pinger 可做健康检查的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// APIHandler 资料和健康检查接口
type APIHandler struct {
	serviceName    string
	profile        *model.Profile
	sessionService *service.SessionService
	store          Pinger
	completion     bool // 是否配置了补全接口
	logger         *zap.Logger
}

// NewAPIHandler 创建 API 处理器，store 可以为 nil
func NewAPIHandler(
	serviceName string,
	profile *model.Profile,
	sessionService *service.SessionService,
	store Pinger,
	completion bool,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		serviceName:    serviceName,
		profile:        profile,
		sessionService: sessionService,
		store:          store,
		completion:     completion,
		logger:         logger,
	}
}

// Health 健康检查
func (h *APIHandler) Health(c *gin.Context) {
	status := http.StatusOK
	storeStatus := "DISABLED"
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("联系消息存储不可用", zap.Error(err))
			storeStatus = "DOWN"
			status = http.StatusServiceUnavailable
		} else {
			storeStatus = "UP"
		}
	}

	overall := "UP"
	if status != http.StatusOK {
		overall = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"service":      h.serviceName,
		"sessions":     h.sessionService.Count(),
		"completion":   h.completion,
		"contactStore": storeStatus,
	})
}

// Profile 作品集资料
func (h *APIHandler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, h.profile)
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
