// Package ratelimit implements the per-session fixed-window request budget
// that gates calls to the remote completion endpoint.
package ratelimit

import (
	"errors"
	"time"

	"github.com/portfolio/portfolio-assistant/internal/model"
)

const (
	// DefaultCapacity 每个窗口允许的请求数
	DefaultCapacity = 20
	// DefaultWindow 窗口长度
	DefaultWindow = time.Minute
)

// ErrBudgetExhausted 当前窗口的请求额度已用完
var ErrBudgetExhausted = errors.New("rate limit budget exhausted")

// Window 固定窗口计数器。
// 窗口只在 Allow 被调用时惰性重置，没有后台定时器。
// 非并发安全，由调用方串行访问。
type Window struct {
	capacity int
	window   time.Duration
	now      func() time.Time

	count   int
	resetAt time.Time
}

// Option 计数器选项
type Option func(*Window)

// WithClock 注入时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(w *Window) {
		w.now = now
	}
}

// New 创建固定窗口计数器，capacity/window 非正时使用默认值
func New(capacity int, window time.Duration, opts ...Option) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if window <= 0 {
		window = DefaultWindow
	}

	w := &Window{
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.resetAt = w.now().Add(w.window)
	return w
}

// Allow 判断当前窗口是否还有额度；窗口到期时先重置
func (w *Window) Allow() bool {
	now := w.now()
	if !now.Before(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(w.window)
	}
	return w.count < w.capacity
}

// RecordRequest 记录一次已发出的请求，只应在 Allow 返回 true 后调用
func (w *Window) RecordRequest() {
	w.count++
}

// Snapshot 当前窗口状态
func (w *Window) Snapshot() model.RateWindow {
	return model.RateWindow{
		RequestCount:  w.count,
		WindowResetAt: w.resetAt,
	}
}

// Capacity 窗口容量
func (w *Window) Capacity() int {
	return w.capacity
}
