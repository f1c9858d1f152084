package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("会话不存在或已过期")
)

// ChatbotFactory 为新会话创建编排器
type ChatbotFactory func() *ChatbotService

// chatSession 会话注册表条目
type chatSession struct {
	id       string
	bot      *ChatbotService
	conn     *model.WidgetConn // REST 会话为 nil
	lastSeen time.Time
}

// SessionService 会话管理服务：sessionId -> 编排器，空闲超时后回收
type SessionService struct {
	sessions map[string]*chatSession
	mu       sync.RWMutex // 读写锁保护
	factory  ChatbotFactory
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// SessionOption 会话管理选项
type SessionOption func(*SessionService)

// WithSessionClock 注入时钟，用于空闲判断
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionService) {
		s.now = now
	}
}

// NewSessionService 创建会话管理服务并启动过期清理
func NewSessionService(factory ChatbotFactory, ttl time.Duration, logger *zap.Logger, opts ...SessionOption) *SessionService {
	s := newSessionService(factory, ttl, logger)
	for _, opt := range opts {
		opt(s)
	}

	interval := ttl / 2
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	go s.janitor(interval)

	return s
}

func newSessionService(factory ChatbotFactory, ttl time.Duration, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions: make(map[string]*chatSession),
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
		logger:   logger,
	}
}

// Create 创建 REST 会话
func (s *SessionService) Create() (string, *ChatbotService) {
	id := uuid.New().String()
	bot := s.factory()

	s.mu.Lock()
	s.sessions[id] = &chatSession{id: id, bot: bot, lastSeen: s.now()}
	s.mu.Unlock()

	s.logger.Info("会话已创建", zap.String("sessionId", id))
	return id, bot
}

// Attach 为 WebSocket 连接创建会话，连接断开后调用 Remove
func (s *SessionService) Attach(conn *model.WidgetConn) *ChatbotService {
	bot := s.factory()

	s.mu.Lock()
	if existing, ok := s.sessions[conn.SessionID]; ok && existing.conn != nil {
		s.logger.Info("会话重复连接，关闭旧连接", zap.String("sessionId", conn.SessionID))
		existing.conn.Close()
		existing.bot.ClearSession()
	}
	s.sessions[conn.SessionID] = &chatSession{id: conn.SessionID, bot: bot, conn: conn, lastSeen: s.now()}
	s.mu.Unlock()

	s.logger.Info("WebSocket 会话注册成功",
		zap.String("sessionId", conn.SessionID),
		zap.String("clientIp", conn.ClientIP))
	return bot
}

// Get 获取会话并刷新活跃时间
func (s *SessionService) Get(sessionID string) (*ChatbotService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.lastSeen = s.now()
	return session.bot, nil
}

// Touch 刷新活跃时间（心跳）
func (s *SessionService) Touch(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	session.lastSeen = s.now()
	if session.conn != nil {
		session.conn.UpdateHeartbeat()
	}
	return true
}

// Remove 移除会话并取消未完成的请求
func (s *SessionService) Remove(sessionID string) bool {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	session.bot.CancelRequest()
	s.logger.Info("会话已移除", zap.String("sessionId", sessionID))
	return true
}

// Count 当前会话数
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stop 停止过期清理
func (s *SessionService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// janitor 定期回收空闲会话
func (s *SessionService) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// EvictIdle 回收超过 TTL 未活跃的会话，返回回收数量。
// 正在等待回复的会话不回收。
func (s *SessionService) EvictIdle() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	now := s.now()
	var expired []*chatSession
	for id, session := range s.sessions {
		if now.Sub(session.lastSeen) > s.ttl && session.bot.State() != StateAwaitingReply {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.bot.CancelRequest()
		if session.conn != nil {
			session.conn.Close()
		}
		s.logger.Info("清理空闲会话", zap.String("sessionId", session.id))
	}
	return len(expired)
}
