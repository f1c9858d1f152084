package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/portfolio/portfolio-assistant/internal/config"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"go.uber.org/zap"
)

const (
	userAgent = "Portfolio-Chatbot/1.0"

	// maxResponseSize 响应体大小上限
	maxResponseSize = 1 << 20
)

// 补全失败的种类，调用方用 errors.Is 判断
var (
	ErrNotConfigured      = errors.New("completion API key not configured")
	ErrUnauthorized       = errors.New("unauthorized: invalid API key")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrRateLimited        = errors.New("rate limited by completion API")
	ErrServerError        = errors.New("completion API server error")
	ErrNetwork            = errors.New("network error")
	ErrMalformedResponse  = errors.New("malformed completion response")
)

// APIError 补全请求失败的详细信息
type APIError struct {
	Kind     error  // 上面的哨兵错误之一
	Status   int    // HTTP 状态码，网络错误时为 0
	Attempts int    // 实际发出的请求次数
	Body     string // 截断后的响应体
	Cause    error  // 底层错误（网络错误、JSON 解析错误）
}

// Error implements error.
func (e *APIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&sb, " (HTTP %d)", e.Status)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&sb, " after %d attempts", e.Attempts)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	} else if e.Body != "" {
		fmt.Fprintf(&sb, ": %s", e.Body)
	}
	return sb.String()
}

// Unwrap 同时暴露种类和底层错误
func (e *APIError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Completion 一次成功的补全
type Completion struct {
	Content string
	Usage   *model.Usage
}

// CompletionRequest 补全请求体
type CompletionRequest struct {
	Model       string                   `json:"model"`
	Messages    []model.ConversationTurn `json:"messages"`
	MaxTokens   int                      `json:"max_tokens"`
	Temperature float64                  `json:"temperature"`
	Stream      bool                     `json:"stream"`
}

// CompletionResponse 补全响应体
type CompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *model.Usage `json:"usage,omitempty"`
}

// CompletionClient OpenAI 兼容的对话补全客户端（默认 DeepSeek）
type CompletionClient struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	maxRetries  int
	baseDelay   time.Duration

	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
}

// Option 客户端选项
type Option func(*CompletionClient)

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *CompletionClient) {
		c.httpClient = hc
	}
}

// WithSleep 替换重试等待函数（测试中记录退避时间而不真正等待）
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *CompletionClient) {
		c.sleep = sleep
	}
}

// NewCompletionClient 创建补全客户端
func NewCompletionClient(cfg config.DeepSeekConfig, logger *zap.Logger, opts ...Option) *CompletionClient {
	c := &CompletionClient{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		apiURL:      cfg.APIURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		baseDelay:   cfg.RetryBaseDelay,
		httpClient:  &http.Client{},
		sleep:       sleepContext,
		logger:      logger,
	}
	if c.apiURL == "" {
		c.apiURL = config.DefaultAPIURL
	}
	if c.model == "" {
		c.model = config.DefaultModel
	}
	if c.baseDelay <= 0 {
		c.baseDelay = config.DefaultRetryBaseDelay
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured 是否有可用的 API 密钥
func (c *CompletionClient) Configured() bool {
	return c.apiKey != ""
}

// Model 模型名称
func (c *CompletionClient) Model() string {
	return c.model
}

// Complete 发送对话并返回补全文本。
// 429、500 和网络错误按 1s、2s、4s 指数退避重试；401、402 及其他状态码直接失败。
func (c *CompletionClient) Complete(ctx context.Context, turns []model.ConversationTurn) (*Completion, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(CompletionRequest{
		Model:       c.model,
		Messages:    turns,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	var lastErr *APIError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.Warn("补全请求失败，准备重试",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		completion, apiErr, err := c.doRequest(ctx, payload)
		if err != nil {
			// 上下文取消原样返回
			return nil, err
		}
		if apiErr == nil {
			c.logger.Debug("补全成功",
				zap.Int("attempts", attempt+1),
				zap.Int("length", len(completion.Content)))
			return completion, nil
		}

		apiErr.Attempts = attempt + 1
		if !retryable(apiErr) {
			return nil, apiErr
		}
		lastErr = apiErr
	}

	return nil, lastErr
}

// doRequest 发送一次请求。第三个返回值只在上下文结束时非空
func (c *CompletionClient) doRequest(ctx context.Context, payload []byte) (*Completion, *APIError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &APIError{Kind: ErrNetwork, Cause: err}, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, &APIError{Kind: ErrNetwork, Cause: err}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, &APIError{Kind: ErrNetwork, Status: resp.StatusCode, Cause: err}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Kind:   kindForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Body:   truncate(string(body), 512),
		}, nil
	}

	var parsed CompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &APIError{Kind: ErrMalformedResponse, Status: resp.StatusCode, Cause: err}, nil
	}
	if len(parsed.Choices) == 0 {
		return nil, &APIError{Kind: ErrMalformedResponse, Status: resp.StatusCode, Body: truncate(string(body), 512)}, nil
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, &APIError{Kind: ErrMalformedResponse, Status: resp.StatusCode, Body: truncate(string(body), 512)}, nil
	}

	return &Completion{Content: content, Usage: parsed.Usage}, nil, nil
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusPaymentRequired:
		return ErrInsufficientCredit
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrServerError
	}
}

// retryable 只有 429、500 和网络错误会重试
func retryable(e *APIError) bool {
	switch {
	case errors.Is(e.Kind, ErrNetwork):
		return true
	case e.Status == http.StatusTooManyRequests, e.Status == http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// backoff 第 n 次重试前的等待时间：base, 2*base, 4*base ...
func (c *CompletionClient) backoff(retry int) time.Duration {
	return c.baseDelay * time.Duration(1<<uint(retry-1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// truncate 最多保留 n 字节，不截断多字节字符
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
