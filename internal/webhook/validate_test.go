package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDiscordWebhook(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://discord.com/api/webhooks/123/abc", true},
		{"https://discordapp.com/api/webhooks/123/abc", true},
		{"https://discord.com:443/api/webhooks/123/abc", true},
		{"https://Discord.com/api/webhooks/1/a", true},
		{"https://DISCORDAPP.COM/api/webhooks/1/a", true},
		{"https://discord.com/api/webhooks/", true},
		{"https://discord.com/api/x/../webhooks/1/a", true},
		{"https://discord.com/api/webhooks/../../x", false},
		{"https://discord.com/api/webhooks/..", false},
		{"http://discord.com/api/webhooks/123/abc", false},
		{"https://evil.com/api/webhooks/123/abc", false},
		{"https://discord.com.evil.com/api/webhooks/123/abc", false},
		{"https://discord.com/api/channels/123", false},
		{"https://discord.com/api/webhooks", false},
		{"not a url", false},
		{"://missing-scheme", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDiscordWebhook(tt.url))
		})
	}
}

func TestEmptyURLPolicy(t *testing.T) {
	assert.True(t, ValidSlotURL(""), "empty slot means unused")
	assert.False(t, ValidLegacyURL(""), "legacy webhook must be set explicitly")

	good := "https://discord.com/api/webhooks/1/x"
	assert.True(t, ValidSlotURL(good))
	assert.True(t, ValidLegacyURL(good))
	assert.False(t, ValidSlotURL("nope"))
	assert.False(t, ValidLegacyURL("nope"))
}
