package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/portfolio/portfolio-assistant/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestContactService(t *testing.T) *ContactService {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "contact.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewContactService(s, zap.NewNop())
}

func TestContactService_Submit(t *testing.T) {
	svc := newTestContactService(t)
	ctx := context.Background()

	msg, err := svc.Submit(ctx, model.ContactRequest{
		Name:    "  Jane Doe ",
		Email:   " jane@example.com ",
		Subject: "Internship",
		Message: "We'd like to talk.\n",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Jane Doe", msg.Name)
	assert.Equal(t, "jane@example.com", msg.Email)
	assert.Equal(t, "We'd like to talk.", msg.Message)
	assert.Equal(t, model.ContactNew, msg.Status)

	got, err := svc.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.Subject, got.Subject)
}

func TestContactService_SubmitValidation(t *testing.T) {
	svc := newTestContactService(t)

	cases := map[string]model.ContactRequest{
		"missing name":    {Email: "a@b.co", Subject: "s", Message: "m"},
		"blank message":   {Name: "n", Email: "a@b.co", Subject: "s", Message: "   "},
		"missing subject": {Name: "n", Email: "a@b.co", Message: "m"},
		"bad email":       {Name: "n", Email: "not-an-email", Subject: "s", Message: "m"},
		"email no tld":    {Name: "n", Email: "a@b", Subject: "s", Message: "m"},
		"email spaces":    {Name: "n", Email: "a b@c.de", Subject: "s", Message: "m"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), req)
			assert.ErrorIs(t, err, ErrContactInvalid)
		})
	}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestContactService_Inbox(t *testing.T) {
	svc := newTestContactService(t)
	ctx := context.Background()

	msg, err := svc.Submit(ctx, model.ContactRequest{Name: "n", Email: "a@b.co", Subject: "s", Message: "m"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, msg.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.List(ctx, model.ContactQuery{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err := svc.UpdateStatus(ctx, msg.ID, model.ContactReplied)
	require.NoError(t, err)
	assert.NotNil(t, updated.ReadAt)

	page, err := svc.List(ctx, model.ContactQuery{Status: model.ContactReplied})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	require.NoError(t, svc.Delete(ctx, msg.ID))
	assert.ErrorIs(t, svc.Delete(ctx, msg.ID), store.ErrNotFound)
}
