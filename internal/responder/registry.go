package responder

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/portfolio/portfolio-assistant/internal/model"
	"go.uber.org/zap"
)

// Bank 回复模板库
type Bank struct {
	templates map[string]*Template
	order     []string
	rand      *rand.Rand
	randMu    sync.Mutex // rand.Rand 不是并发安全的
	mu        sync.RWMutex
	logger    *zap.Logger
}

// Option 模板库选项
type Option func(*Bank)

// WithRand 注入随机源（测试中用固定种子）
func WithRand(r *rand.Rand) Option {
	return func(b *Bank) {
		b.rand = r
	}
}

// NewBank 创建空模板库
func NewBank(logger *zap.Logger, opts ...Option) *Bank {
	b := &Bank{
		templates: make(map[string]*Template),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewDefaultBank 创建并注册全部内置模板
func NewDefaultBank(logger *zap.Logger, opts ...Option) *Bank {
	b := NewBank(logger, opts...)
	if err := RegisterBuiltinTemplates(b); err != nil {
		// 内置模板主题固定且不重复
		panic(err)
	}
	return b
}

// Register 注册模板
func (b *Bank) Register(t *Template) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.Topic == "" {
		return fmt.Errorf("template topic cannot be empty")
	}
	if t.Render == nil {
		return fmt.Errorf("template render not implemented: %s", t.Topic)
	}
	if _, exists := b.templates[t.Topic]; exists {
		return fmt.Errorf("template already registered: %s", t.Topic)
	}

	b.templates[t.Topic] = t
	b.order = append(b.order, t.Topic)
	b.logger.Debug("模板已注册", zap.String("topic", t.Topic))
	return nil
}

// Get 获取模板
func (b *Bank) Get(topic string) (*Template, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.templates[topic]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", topic)
	}
	return t, nil
}

// List 按注册顺序列出模板
func (b *Bank) List() []*Template {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*Template, 0, len(b.order))
	for _, topic := range b.order {
		out = append(out, b.templates[topic])
	}
	return out
}

// Count 模板数量
func (b *Bank) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.templates)
}

// Render 渲染主题回复；未知主题使用默认模板
func (b *Bank) Render(topic, message string, profile *model.Profile) string {
	return b.RenderInput(topic, Input{Message: message, Profile: profile})
}

// RenderInput 带会话记忆渲染主题回复
func (b *Bank) RenderInput(topic string, in Input) string {
	t, err := b.Get(topic)
	if err != nil {
		b.logger.Debug("主题无模板，使用默认回复", zap.String("topic", topic))
		t, err = b.Get(model.TopicDefault)
		if err != nil {
			return minimalDefault(in.Profile)
		}
	}

	if b.rand != nil {
		b.randMu.Lock()
		defer b.randMu.Unlock()
		in.rand = b.rand
	}
	return t.Render(in)
}

// Label 主题展示名称，没有注册时返回主题本身
func (b *Bank) Label(topic string) string {
	t, err := b.Get(topic)
	if err != nil || t.Label == "" {
		return topic
	}
	return t.Label
}

func minimalDefault(p *model.Profile) string {
	if p == nil || p.PersonalInfo.Name == "" {
		return "Hello! I'm a portfolio assistant. Ask me about skills, projects, education, or how to get in touch."
	}
	return fmt.Sprintf("Hello! I'm %s's portfolio assistant. Ask me about skills, projects, education, or how to get in touch.", p.PersonalInfo.Name)
}
