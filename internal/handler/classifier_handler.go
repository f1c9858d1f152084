package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/portfolio/portfolio-assistant/internal/responder"
	"github.com/portfolio/portfolio-assistant/internal/service"
	"go.uber.org/zap"
)

// ClassifierHandler 意图识别调试接口
type ClassifierHandler struct {
	classifierService *service.ClassifierService
	logger            *zap.Logger
}

// NewClassifierHandler 创建分类处理器
func NewClassifierHandler(classifierService *service.ClassifierService, logger *zap.Logger) *ClassifierHandler {
	return &ClassifierHandler{
		classifierService: classifierService,
		logger:            logger,
	}
}

// Classify 返回各主题得分和模板路由结果
func (h *ClassifierHandler) Classify(c *gin.Context) {
	question := c.Query("question")
	if question == "" {
		fail(c, http.StatusBadRequest, "question 参数不能为空")
		return
	}

	intents := h.classifierService.Classify(question)
	topic := responder.Route(question, intents)

	h.logger.Debug("收到分类请求",
		zap.String("question", question),
		zap.String("topic", topic))

	c.JSON(http.StatusOK, gin.H{
		"question": question,
		"topic":    topic,
		"intents":  intents,
	})
}
