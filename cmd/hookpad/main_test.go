package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shohag/hookpad/internal/config"
	"github.com/shohag/hookpad/internal/models"
	"github.com/shohag/hookpad/internal/storage"
)

func TestComposeStateFromFlags(t *testing.T) {
	cmd := sendCmd(new(string))
	require.NoError(t, cmd.ParseFlags([]string{"--min", "5", "--ts"}))

	st := composeState(cmd, []string{"raid", "starts"})
	assert.Equal(t, "raid starts", st.Text)
	assert.Equal(t, "5", st.Minutes)
	assert.Equal(t, "0", st.Seconds)
	assert.True(t, st.IncludeTimestamp)
}

func TestSetupStorage(t *testing.T) {
	s, err := setupStorage(config.StorageConfig{Driver: "memory"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, s)

	_, err = setupStorage(config.StorageConfig{Driver: "postgres"}, zerolog.Nop())
	assert.Error(t, err)

	path := t.TempDir() + "/nested/hookpad.db"
	s, err = setupStorage(config.StorageConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: path}}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &storage.SQLiteStore{}, s)
}

func TestSlotUpdateOnlyChangedFlags(t *testing.T) {
	set, _, err := webhooksCmd(new(string)).Find([]string{"set"})
	require.NoError(t, err)
	require.NoError(t, set.ParseFlags([]string{"--name", "Renamed"}))

	upd := slotUpdate(set)
	require.NotNil(t, upd.Name)
	assert.Equal(t, "Renamed", *upd.Name)
	assert.Nil(t, upd.URL)
}

func TestListWebhooksDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(zerolog.Nop())
	require.NoError(t, store.Set(ctx, map[string]any{
		storage.KeyWebhooks:          []models.WebhookSlot{{ID: "wh_1", Name: "Main", URL: "https://discord.com/api/webhooks/1/a"}},
		storage.KeySelectedWebhookID: "wh_9",
	}))

	var out bytes.Buffer
	require.NoError(t, listWebhooks(ctx, store, zerolog.Nop(), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, models.MaxWebhookSlots)
	assert.True(t, strings.HasPrefix(lines[0], "* 1"))
	assert.Contains(t, lines[1], "(unused)")

	vals, err := store.Get(ctx, storage.KeySelectedWebhookID)
	require.NoError(t, err)
	assert.Equal(t, "wh_9", vals.String(storage.KeySelectedWebhookID))
}
