// Package storage holds the persisted key/value configuration shared by
// every hookpad surface.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Configuration keys.
const (
	KeyWebhooks          = "webhooks"
	KeySelectedWebhookID = "selectedWebhookId"
	KeyWebhookURL        = "webhookUrl"
)

// Store is a key/value configuration area. Values are JSON documents.
// Writes commit before subscribers are notified, and a Get issued after a
// Set returns observes that write.
type Store interface {
	Get(ctx context.Context, keys ...string) (Values, error)
	Set(ctx context.Context, values map[string]any) error
	// Subscribe registers fn for change notifications and returns a func
	// that removes it.
	Subscribe(fn Listener) func()

	Migrate(ctx context.Context) error
	Close() error
}

// Values maps keys to their raw JSON value. Missing keys are absent.
type Values map[string]json.RawMessage

// Decode unmarshals key into dst. It reports false when the key is absent,
// leaving dst untouched so callers can pre-fill defaults.
func (v Values) Decode(key string, dst any) (bool, error) {
	raw, ok := v[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// String returns the string value for key, or "" when absent or not a string.
func (v Values) String(key string) string {
	var s string
	if _, err := v.Decode(key, &s); err != nil {
		return ""
	}
	return s
}

// Change describes one key's transition. A nil OldValue means the key was
// created.
type Change struct {
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
}

type Changes map[string]Change

// Has reports whether any of keys changed.
func (c Changes) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := c[k]; ok {
			return true
		}
	}
	return false
}

type Listener func(Changes)

func encodeValues(values map[string]any) (map[string][]byte, error) {
	out := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}

// diff compares two snapshots and returns the keys whose value differs.
func diff(before, after map[string][]byte) Changes {
	changes := Changes{}
	for k, nv := range after {
		ov, ok := before[k]
		if ok && bytes.Equal(ov, nv) {
			continue
		}
		c := Change{NewValue: json.RawMessage(nv)}
		if ok {
			c.OldValue = json.RawMessage(ov)
		}
		changes[k] = c
	}
	for k, ov := range before {
		if _, ok := after[k]; !ok {
			changes[k] = Change{OldValue: json.RawMessage(ov)}
		}
	}
	return changes
}
