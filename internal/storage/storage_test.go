package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": newTestSQLite(t, filepath.Join(t.TempDir(), "hookpad.db")),
		"memory": NewMemory(zerolog.Nop()),
	}
}

type slot struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			vals, err := s.Get(ctx, KeyWebhooks, KeySelectedWebhookID)
			require.NoError(t, err)
			assert.Empty(t, vals)

			err = s.Set(ctx, map[string]any{
				KeyWebhooks:          []slot{{ID: "wh_1", URL: "u1"}},
				KeySelectedWebhookID: "wh_1",
			})
			require.NoError(t, err)

			vals, err = s.Get(ctx, KeyWebhooks, KeySelectedWebhookID, KeyWebhookURL)
			require.NoError(t, err)
			assert.Equal(t, "wh_1", vals.String(KeySelectedWebhookID))
			assert.Equal(t, "", vals.String(KeyWebhookURL))

			var got []slot
			found, err := vals.Decode(KeyWebhooks, &got)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, []slot{{ID: "wh_1", URL: "u1"}}, got)
		})
	}
}

func TestStoreSubscribeOnlyChangedKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var got []Changes
			unsubscribe := s.Subscribe(func(c Changes) { got = append(got, c) })

			require.NoError(t, s.Set(ctx, map[string]any{KeyWebhookURL: "a", KeySelectedWebhookID: "wh_1"}))
			require.NoError(t, s.Set(ctx, map[string]any{KeyWebhookURL: "a", KeySelectedWebhookID: "wh_2"}))
			require.NoError(t, s.Set(ctx, map[string]any{KeyWebhookURL: "a"}))

			require.Len(t, got, 2)
			assert.True(t, got[0].Has(KeyWebhookURL, KeySelectedWebhookID))
			assert.Nil(t, got[0][KeyWebhookURL].OldValue)
			assert.False(t, got[1].Has(KeyWebhookURL))
			assert.JSONEq(t, `"wh_1"`, string(got[1][KeySelectedWebhookID].OldValue))
			assert.JSONEq(t, `"wh_2"`, string(got[1][KeySelectedWebhookID].NewValue))

			unsubscribe()
			unsubscribe()
			require.NoError(t, s.Set(ctx, map[string]any{KeyWebhookURL: "b"}))
			assert.Len(t, got, 2)
		})
	}
}

func TestStoreListenerPanicDoesNotBreakSet(t *testing.T) {
	s := NewMemory(zerolog.Nop())
	called := false
	s.Subscribe(func(Changes) { panic("boom") })
	s.Subscribe(func(Changes) { called = true })

	require.NoError(t, s.Set(context.Background(), map[string]any{KeyWebhookURL: "x"}))
	assert.True(t, called)
}

func TestValuesDecodeBadJSON(t *testing.T) {
	v := Values{KeyWebhooks: []byte(`"not a list"`)}
	var got []slot
	found, err := v.Decode(KeyWebhooks, &got)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestSQLiteRefreshSeesOtherWriter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hookpad.db")
	panel := newTestSQLite(t, path)
	settings := newTestSQLite(t, path)

	var got []Changes
	panel.Subscribe(func(c Changes) { got = append(got, c) })

	require.NoError(t, settings.Set(ctx, map[string]any{KeySelectedWebhookID: "wh_3"}))
	assert.Empty(t, got)

	require.NoError(t, panel.Refresh(ctx))
	require.Len(t, got, 1)
	assert.True(t, got[0].Has(KeySelectedWebhookID))

	// nothing new since the last refresh
	require.NoError(t, panel.Refresh(ctx))
	assert.Len(t, got, 1)
}

func TestSQLiteRefreshDuringLocalWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, filepath.Join(t.TempDir(), "hookpad.db"))

	var (
		mu       sync.Mutex
		reversed []Change
	)
	s.Subscribe(func(c Changes) {
		ch, ok := c["n"]
		if !ok || ch.OldValue == nil {
			return
		}
		var old, cur int
		assert.NoError(t, json.Unmarshal(ch.OldValue, &old))
		assert.NoError(t, json.Unmarshal(ch.NewValue, &cur))
		if cur <= old {
			mu.Lock()
			reversed = append(reversed, ch)
			mu.Unlock()
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 100; i++ {
			assert.NoError(t, s.Set(ctx, map[string]any{"n": i}))
		}
	}()

	for refreshing := true; refreshing; {
		select {
		case <-done:
			refreshing = false
		default:
			require.NoError(t, s.Refresh(ctx))
		}
	}

	mu.Lock()
	assert.Empty(t, reversed)
	mu.Unlock()

	// the snapshot ends in step with the table
	var got []Changes
	s.Subscribe(func(c Changes) { got = append(got, c) })
	require.NoError(t, s.Refresh(ctx))
	assert.Empty(t, got)
}

func TestWatcherPublishesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hookpad.db")
	panel := newTestSQLite(t, path)
	settings := newTestSQLite(t, path)

	var mu sync.Mutex
	var got []Changes
	panel.Subscribe(func(c Changes) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, c)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewWatcher(panel, path, 20*time.Millisecond, zerolog.Nop()).Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// give the watcher time to register before writing
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, settings.Set(context.Background(), map[string]any{KeyWebhooks: []slot{{ID: "wh_1", URL: "u1"}}}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range got {
			if c.Has(KeyWebhooks) {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}
