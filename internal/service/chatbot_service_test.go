package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/portfolio/portfolio-assistant/internal/client"
	"github.com/portfolio/portfolio-assistant/internal/config"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/portfolio/portfolio-assistant/internal/portfolio"
	"github.com/portfolio/portfolio-assistant/internal/ratelimit"
	"github.com/portfolio/portfolio-assistant/internal/responder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCompleter 按脚本返回结果，block 非空时阻塞到上下文结束或 block 关闭
type fakeCompleter struct {
	configured bool
	reply      string
	err        error
	block      chan struct{}
	started    chan struct{}

	mu    sync.Mutex
	calls [][]model.ConversationTurn
}

func (f *fakeCompleter) Configured() bool { return f.configured }

func (f *fakeCompleter) Complete(ctx context.Context, turns []model.ConversationTurn) (*client.Completion, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]model.ConversationTurn(nil), turns...))
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.block:
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &client.Completion{Content: f.reply, Usage: &model.Usage{TotalTokens: 42}}, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCompleter) lastCall() []model.ConversationTurn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestChatbot(t *testing.T, completer Completer, opts ...ChatbotOption) *ChatbotService {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.ChatbotConfig{
		HistoryWindow: 6,
		RateLimit:     20,
		RateWindow:    time.Minute,
	}
	return NewChatbotService(
		completer,
		NewClassifierService(logger),
		responder.NewDefaultBank(logger),
		portfolio.Default(),
		cfg,
		logger,
		opts...,
	)
}

func typingCount(messages []model.Message) int {
	n := 0
	for _, m := range messages {
		if m.IsTyping {
			n++
		}
	}
	return n
}

func TestChatbot_InitialState(t *testing.T) {
	bot := newTestChatbot(t, nil)

	msgs := bot.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, WelcomeMessageID, msgs[0].ID)
	assert.Equal(t, model.SenderAssistant, msgs[0].Sender)
	assert.Contains(t, msgs[0].Content, "Ajnish Kumar's portfolio assistant")
	assert.Equal(t, StateIdle, bot.State())
	assert.Empty(t, bot.History())
}

func TestChatbot_RejectsEmptyInput(t *testing.T) {
	bot := newTestChatbot(t, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := bot.SendMessage(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Len(t, bot.Messages(), 1)
	assert.Empty(t, bot.History())
	assert.Equal(t, StateIdle, bot.State())
}

func TestChatbot_FallbackWithoutCredential(t *testing.T) {
	completer := &fakeCompleter{configured: false}
	bot := newTestChatbot(t, completer)

	resp, err := bot.SendMessage(context.Background(), "What programming languages do you know?")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, model.SourceFallback, resp.Source)
	assert.Contains(t, []string{model.TopicSkills, model.TopicSpecificTech}, resp.Topic)
	assert.Contains(t, resp.Message, "Java")
	assert.Contains(t, resp.Message, "C")
	assert.Contains(t, resp.Message, "Web")
	assert.ErrorIs(t, resp.Err, client.ErrNotConfigured)

	assert.Zero(t, completer.callCount())
	// 未配置时不消耗限流额度
	assert.Equal(t, 0, bot.RateWindow().RequestCount)
	assert.Equal(t, []string{model.TopicSkills}, bot.AskedTopics())
}

func TestChatbot_ContactScenario(t *testing.T) {
	bot := newTestChatbot(t, nil)

	resp, err := bot.SendMessage(context.Background(), "How can I reach you?")
	require.NoError(t, err)
	assert.Equal(t, model.TopicContact, resp.Topic)
	assert.Contains(t, resp.Message, "ajnishkumar7070@gmail.com")
	assert.Equal(t, model.TopicContact, bot.LastTopic())
	assert.Len(t, bot.SuggestedQuestions(""), 3)
}

func TestChatbot_ModelReply(t *testing.T) {
	completer := &fakeCompleter{configured: true, reply: "I know Java, C++ and web."}
	bot := newTestChatbot(t, completer)

	resp, err := bot.SendMessage(context.Background(), "  What do you know?  ")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, model.SourceModel, resp.Source)
	assert.Equal(t, "I know Java, C++ and web.", resp.Message)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 42, resp.Usage.TotalTokens)
	assert.Equal(t, 1, bot.RateWindow().RequestCount)

	call := completer.lastCall()
	require.Len(t, call, 2)
	assert.Equal(t, model.RoleSystem, call[0].Role)
	assert.Contains(t, call[0].Content, "Ajnish Kumar")
	assert.Equal(t, model.ConversationTurn{Role: model.RoleUser, Content: "What do you know?"}, call[1])

	msgs := bot.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.SenderUser, msgs[1].Sender)
	assert.Equal(t, "What do you know?", msgs[1].Content)
	assert.Equal(t, resp.Message, msgs[2].Content)
	assert.Zero(t, typingCount(msgs))
}

func TestChatbot_HistoryRoundTrip(t *testing.T) {
	bot := newTestChatbot(t, &fakeCompleter{configured: true, reply: "sure"})

	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("question %d", i)
		resp, err := bot.SendMessage(context.Background(), text)
		require.NoError(t, err)

		history := bot.History()
		require.GreaterOrEqual(t, len(history), 2)
		assert.Equal(t, model.ConversationTurn{Role: model.RoleUser, Content: text}, history[len(history)-2])
		assert.Equal(t, model.ConversationTurn{Role: model.RoleAssistant, Content: resp.Message}, history[len(history)-1])
	}
	assert.Len(t, bot.History(), 6)
}

func TestChatbot_HistoryWindow(t *testing.T) {
	completer := &fakeCompleter{configured: true, reply: "ok"}
	bot := newTestChatbot(t, completer)

	for i := 0; i < 5; i++ {
		_, err := bot.SendMessage(context.Background(), fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}

	call := completer.lastCall()
	// 系统提示词 + 最近 6 轮
	require.Len(t, call, 7)
	assert.Equal(t, model.RoleSystem, call[0].Role)
	assert.Equal(t, model.ConversationTurn{Role: model.RoleAssistant, Content: "ok"}, call[1])
	assert.Equal(t, model.ConversationTurn{Role: model.RoleUser, Content: "q2"}, call[2])
	assert.Equal(t, model.ConversationTurn{Role: model.RoleUser, Content: "q4"}, call[6])
}

func TestChatbot_RemoteFailureFallsBack(t *testing.T) {
	unauthorized := &client.APIError{Kind: client.ErrUnauthorized, Status: 401, Attempts: 1}
	completer := &fakeCompleter{configured: true, err: unauthorized}
	bot := newTestChatbot(t, completer)

	resp, err := bot.SendMessage(context.Background(), "How can I reach you?")
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, model.SourceFallback, resp.Source)
	assert.ErrorIs(t, resp.Err, client.ErrUnauthorized)
	assert.NotEmpty(t, resp.Error)
	assert.Contains(t, resp.Message, "ajnishkumar7070@gmail.com")
	assert.Equal(t, 1, completer.callCount())

	history := bot.History()
	require.Len(t, history, 2)
	assert.Equal(t, resp.Message, history[1].Content)
}

func TestChatbot_RateBudgetExhaustedBypassesNetwork(t *testing.T) {
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	completer := &fakeCompleter{configured: true, reply: "model"}
	bot := newTestChatbot(t, completer, WithClock(clock.Now))

	for i := 0; i < 20; i++ {
		resp, err := bot.SendMessage(context.Background(), "hi")
		require.NoError(t, err)
		require.Equal(t, model.SourceModel, resp.Source)
	}

	resp, err := bot.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, model.SourceFallback, resp.Source)
	assert.ErrorIs(t, resp.Err, ratelimit.ErrBudgetExhausted)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, 20, completer.callCount())

	clock.Advance(time.Minute)
	resp, err = bot.SendMessage(context.Background(), "hello again")
	require.NoError(t, err)
	assert.Equal(t, model.SourceModel, resp.Source)
	assert.Equal(t, 1, bot.RateWindow().RequestCount)
}

func TestChatbot_RejectsSubmissionWhileAwaiting(t *testing.T) {
	completer := &fakeCompleter{
		configured: true,
		reply:      "done",
		block:      make(chan struct{}),
		started:    make(chan struct{}, 1),
	}
	bot := newTestChatbot(t, completer)

	done := make(chan error, 1)
	go func() {
		_, err := bot.SendMessage(context.Background(), "first")
		done <- err
	}()
	<-completer.started

	assert.Equal(t, StateAwaitingReply, bot.State())
	before := bot.Messages()
	assert.Equal(t, 1, typingCount(before))

	_, err := bot.SendMessage(context.Background(), "second")
	assert.ErrorIs(t, err, ErrRequestInFlight)
	assert.Equal(t, before, bot.Messages())

	close(completer.block)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, bot.State())
	assert.Zero(t, typingCount(bot.Messages()))
	assert.Equal(t, 1, completer.callCount())
}

func TestChatbot_CancelRequest(t *testing.T) {
	completer := &fakeCompleter{
		configured: true,
		reply:      "never shown",
		block:      make(chan struct{}),
		started:    make(chan struct{}, 1),
	}
	bot := newTestChatbot(t, completer)

	assert.False(t, bot.CancelRequest())

	done := make(chan error, 1)
	go func() {
		_, err := bot.SendMessage(context.Background(), "question")
		done <- err
	}()
	<-completer.started

	assert.True(t, bot.CancelRequest())
	assert.ErrorIs(t, <-done, ErrCancelled)

	msgs := bot.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderUser, msgs[1].Sender)
	assert.Zero(t, typingCount(msgs))
	assert.Empty(t, bot.History())
	assert.Equal(t, StateIdle, bot.State())

	// 取消后可以继续提交
	close(completer.block)
	resp, err := bot.SendMessage(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, "never shown", resp.Message)
}

func TestChatbot_CallerContextCancel(t *testing.T) {
	completer := &fakeCompleter{
		configured: true,
		block:      make(chan struct{}),
		started:    make(chan struct{}, 1),
	}
	bot := newTestChatbot(t, completer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := bot.SendMessage(ctx, "question")
		done <- err
	}()
	<-completer.started
	cancel()

	assert.ErrorIs(t, <-done, ErrCancelled)
	assert.Zero(t, typingCount(bot.Messages()))
	assert.Empty(t, bot.History())
	assert.Equal(t, StateIdle, bot.State())
}

func TestChatbot_CancelledContextKeepsLocalFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bot := newTestChatbot(t, &fakeCompleter{configured: false})
	resp, err := bot.SendMessage(ctx, "How can I reach you?")
	require.NoError(t, err)
	assert.Equal(t, model.SourceFallback, resp.Source)
	assert.Equal(t, model.TopicContact, resp.Topic)
	assert.Len(t, bot.Messages(), 3)
	assert.Len(t, bot.History(), 2)
	assert.Equal(t, StateIdle, bot.State())
}

func TestChatbot_ClearSession(t *testing.T) {
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	bot := newTestChatbot(t, nil, WithClock(clock.Now))

	_, err := bot.SendMessage(context.Background(), "How can I reach you?")
	require.NoError(t, err)
	require.NotEmpty(t, bot.AskedTopics())

	bot.ClearSession()
	first := bot.Messages()
	bot.ClearSession()
	second := bot.Messages()

	require.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, WelcomeMessageID, second[0].ID)
	assert.Empty(t, bot.History())
	assert.Empty(t, bot.AskedTopics())
	assert.Equal(t, StateIdle, bot.State())
}

func TestChatbot_ClearSessionWhileAwaiting(t *testing.T) {
	completer := &fakeCompleter{
		configured: true,
		reply:      "late",
		block:      make(chan struct{}),
		started:    make(chan struct{}, 1),
	}
	bot := newTestChatbot(t, completer)

	done := make(chan error, 1)
	go func() {
		_, err := bot.SendMessage(context.Background(), "question")
		done <- err
	}()
	<-completer.started

	bot.ClearSession()
	assert.ErrorIs(t, <-done, ErrCancelled)

	msgs := bot.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, WelcomeMessageID, msgs[0].ID)
	assert.Empty(t, bot.History())
}

func TestChatbot_DefaultReplySkipsAskedTopics(t *testing.T) {
	bot := newTestChatbot(t, nil)

	_, err := bot.SendMessage(context.Background(), "skill")
	require.NoError(t, err)
	_, err = bot.SendMessage(context.Background(), "project")
	require.NoError(t, err)

	resp, err := bot.SendMessage(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Equal(t, model.TopicDefault, resp.Topic)
	assert.Contains(t, resp.Message, "🎓 Education\n📬 Contact Info\n💼 Experience")
}

func TestChatbot_QuickResponses(t *testing.T) {
	bot := newTestChatbot(t, nil)
	assert.Len(t, bot.QuickResponses(), 6)
	assert.Len(t, bot.SuggestedQuestions(""), 4)
}

func TestChatbot_AtMostOneTypingMessage(t *testing.T) {
	completer := &fakeCompleter{configured: true, reply: "ok"}
	bot := newTestChatbot(t, completer)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := bot.SendMessage(context.Background(), fmt.Sprintf("m%d", i))
			if err != nil && !errors.Is(err, ErrRequestInFlight) {
				t.Errorf("unexpected error: %v", err)
			}
			assert.LessOrEqual(t, typingCount(bot.Messages()), 1)
		}(i)
	}
	wg.Wait()
	assert.Zero(t, typingCount(bot.Messages()))
}
