package model

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WidgetConn 聊天窗口的 WebSocket 连接
type WidgetConn struct {
	SessionID     string
	ClientIP      string
	Conn          *websocket.Conn
	LastHeartbeat time.Time
	mu            sync.Mutex // gorilla 连接不允许并发写
}

// NewWidgetConn 创建连接包装
func NewWidgetConn(sessionID, clientIP string, conn *websocket.Conn) *WidgetConn {
	return &WidgetConn{
		SessionID:     sessionID,
		ClientIP:      clientIP,
		Conn:          conn,
		LastHeartbeat: time.Now(),
	}
}

// UpdateHeartbeat 更新心跳时间
func (w *WidgetConn) UpdateHeartbeat() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.LastHeartbeat = time.Now()
}

// WriteFrame 向 WebSocket 写入帧（线程安全）
func (w *WidgetConn) WriteFrame(frame ChatFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}
	frame.SessionID = w.SessionID
	return w.Conn.WriteJSON(frame)
}

// Close 关闭底层连接，未建立连接时什么也不做
func (w *WidgetConn) Close() error {
	if w == nil || w.Conn == nil {
		return nil
	}
	return w.Conn.Close()
}
