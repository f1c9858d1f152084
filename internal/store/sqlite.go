package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/portfolio/portfolio-assistant/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite 的联系消息存储
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite 打开（必要时创建）数据库文件
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 单连接写入，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS contact_messages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		subject TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		created_at INTEGER NOT NULL,
		read_at INTEGER,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contact_created ON contact_messages(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_contact_status ON contact_messages(status);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping 检查数据库连接
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭数据库
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create 保存新消息
func (s *SQLiteStore) Create(ctx context.Context, msg *model.ContactMessage) error {
	query := `
	INSERT INTO contact_messages (id, name, email, subject, message, status, created_at, read_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.Name, msg.Email, msg.Subject, msg.Message, string(msg.Status),
		msg.CreatedAt.UnixMilli(), nullableMillis(msg.ReadAt), msg.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, name, email, subject, message, status, created_at, read_at, updated_at FROM contact_messages`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*model.ContactMessage, error) {
	var msg model.ContactMessage
	var status string
	var createdAt, updatedAt int64
	var readAt sql.NullInt64

	if err := row.Scan(&msg.ID, &msg.Name, &msg.Email, &msg.Subject, &msg.Message,
		&status, &createdAt, &readAt, &updatedAt); err != nil {
		return nil, err
	}

	msg.Status = model.ContactStatus(status)
	msg.CreatedAt = time.UnixMilli(createdAt).UTC()
	msg.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if readAt.Valid {
		t := time.UnixMilli(readAt.Int64).UTC()
		msg.ReadAt = &t
	}
	return &msg, nil
}

// Get 按 ID 获取
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.ContactMessage, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)

	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan contact message: %w", err)
	}
	return msg, nil
}

// List 分页查询
func (s *SQLiteStore) List(ctx context.Context, q model.ContactQuery) (*model.ContactPage, error) {
	q = normalizeQuery(q)

	var where string
	var args []any
	if q.Status != "" {
		where = ` WHERE status = ?`
		args = append(args, string(q.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count contact messages: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		selectColumns+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("query contact messages: %w", err)
	}
	defer rows.Close()

	page := &model.ContactPage{Messages: []model.ContactMessage{}, Total: total}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		page.Messages = append(page.Messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact messages: %w", err)
	}
	return page, nil
}

// UpdateStatus 更新状态
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status model.ContactStatus) (*model.ContactMessage, error) {
	now := s.now().UnixMilli()

	var query string
	var args []any
	switch status {
	case model.ContactRead, model.ContactReplied:
		query = `UPDATE contact_messages SET status = ?, read_at = ?, updated_at = ? WHERE id = ?`
		args = []any{string(status), now, now, id}
	default:
		query = `UPDATE contact_messages SET status = ?, updated_at = ? WHERE id = ?`
		args = []any{string(status), now, id}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update contact status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete 删除消息
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats 按状态统计
func (s *SQLiteStore) Stats(ctx context.Context) (*model.ContactStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM contact_messages GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query contact stats: %w", err)
	}
	defer rows.Close()

	stats := &model.ContactStats{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan contact stats: %w", err)
		}
		stats.Total += n
		switch model.ContactStatus(strings.TrimSpace(status)) {
		case model.ContactNew:
			stats.New = n
		case model.ContactRead:
			stats.Read = n
		case model.ContactReplied:
			stats.Replied = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact stats: %w", err)
	}
	return stats, nil
}

func nullableMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
