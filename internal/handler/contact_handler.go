package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/portfolio/portfolio-assistant/internal/service"
	"github.com/portfolio/portfolio-assistant/internal/store"
	"go.uber.org/zap"
)

type updateStatusRequest struct {
	Status model.ContactStatus `json:"status"`
}

// ContactHandler 联系表单和站长收件箱
type ContactHandler struct {
	contactService *service.ContactService
	logger         *zap.Logger
}

// NewContactHandler 创建联系表单处理器
func NewContactHandler(contactService *service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// Submit 访客提交联系表单
func (h *ContactHandler) Submit(c *gin.Context) {
	var req model.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request")
		return
	}

	msg, err := h.contactService.Submit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrContactInvalid) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		// 存储错误不暴露给访客
		fail(c, http.StatusInternalServerError, "failed to send message, please try again later")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"id":      msg.ID,
		"message": "Thanks for reaching out! I'll get back to you soon.",
	})
}

// List 收件箱分页
func (h *ContactHandler) List(c *gin.Context) {
	q := model.ContactQuery{
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
		Status: model.ContactStatus(c.Query("status")),
	}

	page, err := h.contactService.List(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get 单条消息
func (h *ContactHandler) Get(c *gin.Context) {
	msg, err := h.contactService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// UpdateStatus 标记已读或已回复
func (h *ContactHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request")
		return
	}

	msg, err := h.contactService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Delete 删除消息
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.contactService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats 收件箱统计
func (h *ContactHandler) Stats(c *gin.Context) {
	stats, err := h.contactService.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ContactHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, "message not found")
	case errors.Is(err, service.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("收件箱操作失败", zap.String("path", c.FullPath()), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

// queryInt 解析非负整数参数，非法值按 0 处理
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
