package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/portfolio/portfolio-assistant/internal/store"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrContactInvalid = errors.New("联系表单校验失败")
	ErrInvalidStatus  = errors.New("不支持的消息状态")
)

// ContactService 联系表单和站长收件箱
type ContactService struct {
	store  store.ContactStore
	now    func() time.Time
	logger *zap.Logger
}

// NewContactService 创建联系表单服务
func NewContactService(s store.ContactStore, logger *zap.Logger) *ContactService {
	return &ContactService{
		store:  s,
		now:    time.Now,
		logger: logger,
	}
}

// Submit 校验并保存访客消息
func (s *ContactService) Submit(ctx context.Context, req model.ContactRequest) (*model.ContactMessage, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	if err := validateContact(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	msg := &model.ContactMessage{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    model.ContactNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, msg); err != nil {
		s.logger.Error("保存联系消息失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("收到联系消息",
		zap.String("id", msg.ID),
		zap.String("subject", msg.Subject))
	return msg, nil
}

func validateContact(req model.ContactRequest) error {
	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Subject == "" {
		missing = append(missing, "subject")
	}
	if req.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: 缺少字段 %s", ErrContactInvalid, strings.Join(missing, ", "))
	}
	if !emailPattern.MatchString(req.Email) {
		return fmt.Errorf("%w: 邮箱格式不正确", ErrContactInvalid)
	}
	return nil
}

// List 收件箱分页
func (s *ContactService) List(ctx context.Context, q model.ContactQuery) (*model.ContactPage, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.store.List(ctx, q)
}

// Get 获取单条消息
func (s *ContactService) Get(ctx context.Context, id string) (*model.ContactMessage, error) {
	return s.store.Get(ctx, id)
}

// UpdateStatus 标记已读或已回复
func (s *ContactService) UpdateStatus(ctx context.Context, id string, status model.ContactStatus) (*model.ContactMessage, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	msg, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("联系消息状态已更新", zap.String("id", id), zap.String("status", string(status)))
	return msg, nil
}

// Delete 删除消息
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("联系消息已删除", zap.String("id", id))
	return nil
}

// Stats 收件箱统计
func (s *ContactService) Stats(ctx context.Context) (*model.ContactStats, error) {
	return s.store.Stats(ctx)
}
