package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio/portfolio-assistant/internal/client"
	"github.com/portfolio/portfolio-assistant/internal/config"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/portfolio/portfolio-assistant/internal/portfolio"
	"github.com/portfolio/portfolio-assistant/internal/ratelimit"
	"github.com/portfolio/portfolio-assistant/internal/responder"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage    = errors.New("消息内容不能为空")
	ErrRequestInFlight = errors.New("上一条消息仍在等待回复")
	ErrCancelled       = errors.New("请求已取消")
)

const (
	// WelcomeMessageID 欢迎消息的固定 ID
	WelcomeMessageID = "welcome"

	typingPlaceholder = "Thinking..."
)

// Completer 远程补全接口
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, turns []model.ConversationTurn) (*client.Completion, error)
}

// State 会话状态
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting_reply"
	default:
		return "unknown"
	}
}

// ChatbotService 单个聊天窗口的会话编排。
// 同一时刻最多一个补全请求；锁不跨网络调用持有。
type ChatbotService struct {
	completer     Completer
	classifier    *ClassifierService
	bank          *responder.Bank
	profile       *model.Profile
	systemPrompt  string
	limiter       *ratelimit.Window
	historyWindow int
	now           func() time.Time
	logger        *zap.Logger

	mu         sync.Mutex
	state      State
	messages   []model.Message
	history    []model.ConversationTurn
	asked      map[string]struct{}
	lastTopic  string
	cancel     context.CancelFunc
	generation uint64 // 每次提交、取消、清空时递增，用来识别过期的回复
}

// ChatbotOption 会话选项
type ChatbotOption func(*ChatbotService)

// WithClock 注入时钟，同时用于限流窗口
func WithClock(now func() time.Time) ChatbotOption {
	return func(s *ChatbotService) {
		s.now = now
	}
}

// NewChatbotService 创建会话。completer 可以为 nil，此时只使用模板回复
func NewChatbotService(
	completer Completer,
	classifier *ClassifierService,
	bank *responder.Bank,
	profile *model.Profile,
	cfg config.ChatbotConfig,
	logger *zap.Logger,
	opts ...ChatbotOption,
) *ChatbotService {
	s := &ChatbotService{
		completer:     completer,
		classifier:    classifier,
		bank:          bank,
		profile:       profile,
		systemPrompt:  portfolio.SystemPrompt(profile),
		historyWindow: cfg.HistoryWindow,
		now:           time.Now,
		logger:        logger,
	}
	if s.historyWindow <= 0 {
		s.historyWindow = config.DefaultHistoryWindow
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = ratelimit.New(cfg.RateLimit, cfg.RateWindow, ratelimit.WithClock(s.now))
	s.reset()
	return s
}

// SendMessage 提交用户消息并等待回复。
// 补全失败、未配置或超出限流时返回模板回复，不会返回错误；
// 只有空消息、已有请求在等待和被取消时返回错误。
func (s *ChatbotService) SendMessage(ctx context.Context, text string) (*model.ChatResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == StateAwaitingReply {
		s.mu.Unlock()
		return nil, ErrRequestInFlight
	}

	now := s.now()
	s.messages = append(s.messages,
		model.Message{ID: uuid.New().String(), Content: text, Sender: model.SenderUser, Timestamp: now},
		model.Message{ID: uuid.New().String(), Content: typingPlaceholder, Sender: model.SenderAssistant, Timestamp: now, IsTyping: true},
	)
	placeholderID := s.messages[len(s.messages)-1].ID
	s.state = StateAwaitingReply
	s.generation++
	gen := s.generation

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel

	// 未配置时不消耗限流额度
	var dispatchErr error
	switch {
	case s.completer == nil || !s.completer.Configured():
		dispatchErr = client.ErrNotConfigured
	case !s.limiter.Allow():
		dispatchErr = ratelimit.ErrBudgetExhausted
	default:
		s.limiter.RecordRequest()
	}
	turns := s.windowLocked(text)
	s.mu.Unlock()

	var completion *client.Completion
	err := dispatchErr
	dispatched := err == nil
	if dispatched {
		completion, err = s.completer.Complete(reqCtx, turns)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// CancelRequest 或 ClearSession 已经清理过
		return nil, ErrCancelled
	}
	// 未发出请求时模板回复已经就绪，不受上下文取消影响
	if dispatched && err != nil && reqCtx.Err() != nil {
		s.removeMessageLocked(placeholderID)
		s.finishLocked()
		s.logger.Info("请求随上下文取消", zap.Error(err))
		return nil, ErrCancelled
	}

	var resp *model.ChatResponse
	if err == nil {
		resp = &model.ChatResponse{
			Success: true,
			Message: completion.Content,
			Source:  model.SourceModel,
			Usage:   completion.Usage,
		}
	} else {
		resp = s.fallbackLocked(text, err)
	}

	s.removeMessageLocked(placeholderID)
	s.messages = append(s.messages, model.Message{
		ID:        uuid.New().String(),
		Content:   resp.Message,
		Sender:    model.SenderAssistant,
		Timestamp: s.now(),
	})
	s.history = append(s.history,
		model.ConversationTurn{Role: model.RoleUser, Content: text},
		model.ConversationTurn{Role: model.RoleAssistant, Content: resp.Message},
	)
	s.finishLocked()
	return resp, nil
}

// fallbackLocked 分类意图并渲染模板回复
func (s *ChatbotService) fallbackLocked(text string, cause error) *model.ChatResponse {
	intents := s.classifier.Classify(text)
	if len(intents) > 0 {
		s.asked[intents[0].Topic] = struct{}{}
		s.lastTopic = intents[0].Topic
	}

	topic := responder.Route(text, intents)
	reply := s.bank.RenderInput(topic, responder.Input{
		Message:     text,
		Profile:     s.profile,
		AskedTopics: s.asked,
	})

	resp := &model.ChatResponse{
		Success: errors.Is(cause, client.ErrNotConfigured),
		Message: reply,
		Source:  model.SourceFallback,
		Topic:   topic,
		Err:     cause,
	}
	if !resp.Success {
		resp.Error = cause.Error()
		s.logger.Warn("补全失败，使用模板回复",
			zap.String("topic", topic),
			zap.Error(cause))
	} else {
		s.logger.Debug("未配置补全接口，使用模板回复", zap.String("topic", topic))
	}
	return resp
}

// windowLocked 系统提示词 + 最近 N 轮（含本轮用户消息）
func (s *ChatbotService) windowLocked(text string) []model.ConversationTurn {
	recent := make([]model.ConversationTurn, 0, len(s.history)+1)
	recent = append(recent, s.history...)
	recent = append(recent, model.ConversationTurn{Role: model.RoleUser, Content: text})
	if len(recent) > s.historyWindow {
		recent = recent[len(recent)-s.historyWindow:]
	}

	turns := make([]model.ConversationTurn, 0, len(recent)+1)
	turns = append(turns, model.ConversationTurn{Role: model.RoleSystem, Content: s.systemPrompt})
	return append(turns, recent...)
}

// CancelRequest 取消正在等待的请求，没有请求时返回 false
func (s *ChatbotService) CancelRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingReply {
		return false
	}

	s.cancel()
	s.removeTypingLocked()
	s.finishLocked()
	s.generation++
	s.logger.Debug("请求已取消")
	return true
}

// ClearSession 重置为只有欢迎消息的初始状态，任何状态下都可以调用
func (s *ChatbotService) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	s.reset()
}

// reset 调用方持有锁（构造时除外）
func (s *ChatbotService) reset() {
	s.messages = []model.Message{s.welcome()}
	s.history = nil
	s.asked = make(map[string]struct{})
	s.lastTopic = ""
	s.state = StateIdle
	s.cancel = nil
}

func (s *ChatbotService) welcome() model.Message {
	name := "the site owner"
	if s.profile != nil && s.profile.PersonalInfo.Name != "" {
		name = s.profile.PersonalInfo.Name
	}
	return model.Message{
		ID:        WelcomeMessageID,
		Content:   "Hi! I'm " + name + "'s portfolio assistant. I can help you learn about technical skills, projects, education, and experience. What would you like to know?",
		Sender:    model.SenderAssistant,
		Timestamp: s.now(),
	}
}

func (s *ChatbotService) finishLocked() {
	s.state = StateIdle
	s.cancel = nil
}

func (s *ChatbotService) removeMessageLocked(id string) {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

func (s *ChatbotService) removeTypingLocked() {
	kept := s.messages[:0]
	for _, m := range s.messages {
		if !m.IsTyping {
			kept = append(kept, m)
		}
	}
	s.messages = kept
}

// Messages 当前消息列表（副本）
func (s *ChatbotService) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages...)
}

// History 对话历史（副本）
func (s *ChatbotService) History() []model.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ConversationTurn(nil), s.history...)
}

// State 当前状态
func (s *ChatbotService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AskedTopics 本会话问过的主题
func (s *ChatbotService) AskedTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	topics := make([]string, 0, len(s.asked))
	for _, topic := range s.classifier.Topics() {
		if _, ok := s.asked[topic]; ok {
			topics = append(topics, topic)
		}
	}
	return topics
}

// LastTopic 最近一次模板回复识别出的主题
func (s *ChatbotService) LastTopic() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTopic
}

// QuickResponses 快捷问题
func (s *ChatbotService) QuickResponses() []model.QuickResponse {
	return responder.QuickResponses(s.profile)
}

// SuggestedQuestions 追问建议，topic 为空时使用最近的主题
func (s *ChatbotService) SuggestedQuestions(topic string) []string {
	if topic == "" {
		topic = s.LastTopic()
	}
	return responder.SuggestedQuestions(topic)
}

// RateWindow 限流窗口状态
func (s *ChatbotService) RateWindow() model.RateWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limiter.Snapshot()
}
