package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newMessage(i int) *model.ContactMessage {
	created := base.Add(time.Duration(i) * time.Minute)
	return &model.ContactMessage{
		ID:        fmt.Sprintf("msg-%02d", i),
		Name:      fmt.Sprintf("Visitor %d", i),
		Email:     fmt.Sprintf("visitor%d@example.com", i),
		Subject:   "Internship",
		Message:   "Hello there",
		Status:    model.ContactNew,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

type storeFactory func(t *testing.T, now func() time.Time) ContactStore

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"sqlite": func(t *testing.T, now func() time.Time) ContactStore {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "data", "contact.db"))
			require.NoError(t, err)
			s.now = now
			t.Cleanup(func() { s.Close() })
			return s
		},
		"redis": func(t *testing.T, now func() time.Time) ContactStore {
			mr := miniredis.RunT(t)
			s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
			s.now = now
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestContactStore(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Run("CreateAndGet", func(t *testing.T) {
				s := factory(t, time.Now)
				ctx := context.Background()
				require.NoError(t, s.Ping(ctx))

				msg := newMessage(1)
				require.NoError(t, s.Create(ctx, msg))

				got, err := s.Get(ctx, msg.ID)
				require.NoError(t, err)
				assert.Equal(t, msg.Name, got.Name)
				assert.Equal(t, msg.Email, got.Email)
				assert.Equal(t, model.ContactNew, got.Status)
				assert.True(t, msg.CreatedAt.Equal(got.CreatedAt))
				assert.Nil(t, got.ReadAt)

				_, err = s.Get(ctx, "missing")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("ListNewestFirstWithPaging", func(t *testing.T) {
				s := factory(t, time.Now)
				ctx := context.Background()
				for i := 0; i < 5; i++ {
					require.NoError(t, s.Create(ctx, newMessage(i)))
				}

				page, err := s.List(ctx, model.ContactQuery{Limit: 2, Offset: 1})
				require.NoError(t, err)
				assert.Equal(t, 5, page.Total)
				require.Len(t, page.Messages, 2)
				assert.Equal(t, "msg-03", page.Messages[0].ID)
				assert.Equal(t, "msg-02", page.Messages[1].ID)

				all, err := s.List(ctx, model.ContactQuery{})
				require.NoError(t, err)
				assert.Len(t, all.Messages, 5)

				empty, err := s.List(ctx, model.ContactQuery{Offset: 10})
				require.NoError(t, err)
				assert.Empty(t, empty.Messages)
				assert.Equal(t, 5, empty.Total)
			})

			t.Run("UpdateStatus", func(t *testing.T) {
				updatedAt := base.Add(time.Hour)
				s := factory(t, func() time.Time { return updatedAt })
				ctx := context.Background()
				require.NoError(t, s.Create(ctx, newMessage(1)))
				require.NoError(t, s.Create(ctx, newMessage(2)))

				got, err := s.UpdateStatus(ctx, "msg-01", model.ContactRead)
				require.NoError(t, err)
				assert.Equal(t, model.ContactRead, got.Status)
				require.NotNil(t, got.ReadAt)
				assert.True(t, updatedAt.Equal(*got.ReadAt))
				assert.True(t, updatedAt.Equal(got.UpdatedAt))

				_, err = s.UpdateStatus(ctx, "missing", model.ContactRead)
				assert.ErrorIs(t, err, ErrNotFound)

				read, err := s.List(ctx, model.ContactQuery{Status: model.ContactRead})
				require.NoError(t, err)
				require.Len(t, read.Messages, 1)
				assert.Equal(t, "msg-01", read.Messages[0].ID)

				fresh, err := s.List(ctx, model.ContactQuery{Status: model.ContactNew})
				require.NoError(t, err)
				assert.Equal(t, 1, fresh.Total)
			})

			t.Run("StatsAndDelete", func(t *testing.T) {
				s := factory(t, time.Now)
				ctx := context.Background()
				for i := 0; i < 4; i++ {
					require.NoError(t, s.Create(ctx, newMessage(i)))
				}
				_, err := s.UpdateStatus(ctx, "msg-00", model.ContactRead)
				require.NoError(t, err)
				_, err = s.UpdateStatus(ctx, "msg-01", model.ContactReplied)
				require.NoError(t, err)

				stats, err := s.Stats(ctx)
				require.NoError(t, err)
				assert.Equal(t, model.ContactStats{Total: 4, New: 2, Read: 1, Replied: 1}, *stats)

				require.NoError(t, s.Delete(ctx, "msg-00"))
				assert.ErrorIs(t, s.Delete(ctx, "msg-00"), ErrNotFound)

				stats, err = s.Stats(ctx)
				require.NoError(t, err)
				assert.Equal(t, model.ContactStats{Total: 3, New: 2, Read: 0, Replied: 1}, *stats)
			})
		})
	}
}
