// Package store persists contact form submissions for the site owner's inbox.
package store

import (
	"context"
	"errors"

	"github.com/portfolio/portfolio-assistant/internal/model"
)

// ErrNotFound 消息不存在
var ErrNotFound = errors.New("contact message not found")

// DefaultPageSize 收件箱默认分页大小
const DefaultPageSize = 50

// ContactStore 联系消息存储
type ContactStore interface {
	// Create 保存新消息，ID 和时间戳由调用方填好
	Create(ctx context.Context, msg *model.ContactMessage) error
	Get(ctx context.Context, id string) (*model.ContactMessage, error)
	// List 按创建时间倒序分页
	List(ctx context.Context, q model.ContactQuery) (*model.ContactPage, error)
	// UpdateStatus 更新状态；read/replied 同时写 ReadAt，总是写 UpdatedAt
	UpdateStatus(ctx context.Context, id string, status model.ContactStatus) (*model.ContactMessage, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.ContactStats, error)
	Ping(ctx context.Context) error
	Close() error
}

// normalizeQuery 补全分页参数
func normalizeQuery(q model.ContactQuery) model.ContactQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
