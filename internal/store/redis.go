package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "contact:"
	indexKey  = keyPrefix + "index" // 全部消息，score 为创建时间（毫秒）
)

var allStatuses = []model.ContactStatus{model.ContactNew, model.ContactRead, model.ContactReplied}

func messageKey(id string) string {
	return keyPrefix + "msg:" + id
}

func statusKey(status model.ContactStatus) string {
	return keyPrefix + "status:" + string(status)
}

// RedisStore 基于 Redis 的联系消息存储：每条消息一个 hash，按时间排序的 zset 做索引
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

// Ping 检查连接
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Create 保存新消息
func (s *RedisStore) Create(ctx context.Context, msg *model.ContactMessage) error {
	score := float64(msg.CreatedAt.UnixMilli())

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, messageKey(msg.ID), toHash(msg))
		pipe.ZAdd(ctx, indexKey, redis.Z{Score: score, Member: msg.ID})
		pipe.ZAdd(ctx, statusKey(msg.Status), redis.Z{Score: score, Member: msg.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("保存联系消息失败: %w", err)
	}
	return nil
}

// Get 按 ID 获取
func (s *RedisStore) Get(ctx context.Context, id string) (*model.ContactMessage, error) {
	fields, err := s.rdb.HGetAll(ctx, messageKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("读取联系消息失败: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return fromHash(fields)
}

// List 分页查询
func (s *RedisStore) List(ctx context.Context, q model.ContactQuery) (*model.ContactPage, error) {
	q = normalizeQuery(q)

	key := indexKey
	if q.Status != "" {
		key = statusKey(q.Status)
	}

	total, err := s.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("统计联系消息失败: %w", err)
	}

	ids, err := s.rdb.ZRevRange(ctx, key, int64(q.Offset), int64(q.Offset+q.Limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("查询联系消息失败: %w", err)
	}

	page := &model.ContactPage{Messages: make([]model.ContactMessage, 0, len(ids)), Total: int(total)}
	if len(ids) == 0 {
		return page, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, messageKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("读取联系消息失败: %w", err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// 索引和 hash 不一致时跳过
			continue
		}
		msg, err := fromHash(fields)
		if err != nil {
			return nil, err
		}
		page.Messages = append(page.Messages, *msg)
	}
	return page, nil
}

// UpdateStatus 更新状态
func (s *RedisStore) UpdateStatus(ctx context.Context, id string, status model.ContactStatus) (*model.ContactMessage, error) {
	msg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	previous := msg.Status
	msg.Status = status
	msg.UpdatedAt = now
	if status == model.ContactRead || status == model.ContactReplied {
		msg.ReadAt = &now
	}

	score := float64(msg.CreatedAt.UnixMilli())
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, messageKey(id), toHash(msg))
		if previous != status {
			pipe.ZRem(ctx, statusKey(previous), id)
			pipe.ZAdd(ctx, statusKey(status), redis.Z{Score: score, Member: id})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("更新联系消息状态失败: %w", err)
	}
	return msg, nil
}

// Delete 删除消息
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, messageKey(id))
		pipe.ZRem(ctx, indexKey, id)
		for _, status := range allStatuses {
			pipe.ZRem(ctx, statusKey(status), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("删除联系消息失败: %w", err)
	}
	if removed.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats 按状态统计
func (s *RedisStore) Stats(ctx context.Context) (*model.ContactStats, error) {
	pipe := s.rdb.Pipeline()
	total := pipe.ZCard(ctx, indexKey)
	counts := make(map[model.ContactStatus]*redis.IntCmd, len(allStatuses))
	for _, status := range allStatuses {
		counts[status] = pipe.ZCard(ctx, statusKey(status))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("统计联系消息失败: %w", err)
	}

	return &model.ContactStats{
		Total:   int(total.Val()),
		New:     int(counts[model.ContactNew].Val()),
		Read:    int(counts[model.ContactRead].Val()),
		Replied: int(counts[model.ContactReplied].Val()),
	}, nil
}

func toHash(msg *model.ContactMessage) map[string]any {
	fields := map[string]any{
		"id":         msg.ID,
		"name":       msg.Name,
		"email":      msg.Email,
		"subject":    msg.Subject,
		"message":    msg.Message,
		"status":     string(msg.Status),
		"created_at": msg.CreatedAt.UnixMilli(),
		"updated_at": msg.UpdatedAt.UnixMilli(),
		"read_at":    "",
	}
	if msg.ReadAt != nil {
		fields["read_at"] = msg.ReadAt.UnixMilli()
	}
	return fields
}

func fromHash(fields map[string]string) (*model.ContactMessage, error) {
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("解析 created_at 失败: %w", err)
	}
	updatedAt, err := strconv.ParseInt(fields["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("解析 updated_at 失败: %w", err)
	}

	msg := &model.ContactMessage{
		ID:        fields["id"],
		Name:      fields["name"],
		Email:     fields["email"],
		Subject:   fields["subject"],
		Message:   fields["message"],
		Status:    model.ContactStatus(fields["status"]),
		CreatedAt: time.UnixMilli(createdAt).UTC(),
		UpdatedAt: time.UnixMilli(updatedAt).UTC(),
	}
	if raw := fields["read_at"]; raw != "" {
		readAt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("解析 read_at 失败: %w", err)
		}
		t := time.UnixMilli(readAt).UTC()
		msg.ReadAt = &t
	}
	return msg, nil
}
