package model

import "time"

// Sender 消息发送方
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message 聊天窗口中展示的一条消息
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	IsTyping  bool      `json:"isTyping,omitempty"` // 等待回复时的临时占位
}

// Role 对话轮次角色
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn 发送给补全接口的一轮对话
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResponseSource 回复来源
type ResponseSource string

const (
	SourceModel    ResponseSource = "model"
	SourceFallback ResponseSource = "fallback"
)

// Usage token 用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse 助手回复
type ChatResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Source  ResponseSource `json:"source"`
	Topic   string         `json:"topic,omitempty"` // 模板回复时命中的主题
	Error   string         `json:"error,omitempty"`
	Usage   *Usage         `json:"usage,omitempty"`

	// Err 保留原始错误，供调用方用 errors.Is 判断
	Err error `json:"-"`
}

// QuickResponse 快捷问题
type QuickResponse struct {
	Question string `json:"question"`
	Response string `json:"response"`
	Category string `json:"category"`
}

// IntentScore 意图得分
type IntentScore struct {
	Topic      string  `json:"topic"`
	Confidence float64 `json:"confidence"`
}

// RateWindow 固定窗口限流状态
type RateWindow struct {
	RequestCount  int       `json:"requestCount"`
	WindowResetAt time.Time `json:"windowResetAt"`
}

// 聊天窗口 WebSocket 帧类型
const (
	FrameChat      = "CHAT"
	FrameCancel    = "CANCEL"
	FrameClear     = "CLEAR"
	FrameHeartbeat = "HEARTBEAT"

	FrameWelcome   = "WELCOME"
	FrameTyping    = "TYPING"
	FrameReply     = "REPLY"
	FrameCancelled = "CANCELLED"
	FrameCleared   = "CLEARED"
	FrameError     = "ERROR"
	FramePong      = "PONG"
)

// ChatFrame 聊天窗口 WebSocket 帧
type ChatFrame struct {
	Type      string        `json:"type"`
	Content   string        `json:"content,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
	Message   *Message      `json:"message,omitempty"`
	Messages  []Message     `json:"messages,omitempty"`
	Reply     *ChatResponse `json:"reply,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
