package webhook

import (
	"net/url"
	"path"
	"strings"
)

// Hosts Discord serves webhooks from. discordapp.com is the legacy alias.
var allowedHosts = map[string]bool{
	"discord.com":    true,
	"discordapp.com": true,
}

const webhookPathPrefix = "/api/webhooks/"

// IsDiscordWebhook reports whether raw is an https Discord webhook URL.
// The host is matched case-insensitively and dot segments are resolved
// before the path prefix is checked.
func IsDiscordWebhook(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "https" &&
		allowedHosts[strings.ToLower(u.Hostname())] &&
		strings.HasPrefix(cleanPath(u.Path), webhookPathPrefix)
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean(p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// ValidSlotURL accepts an empty URL, which marks the slot as unused.
func ValidSlotURL(raw string) bool {
	return raw == "" || IsDiscordWebhook(raw)
}

// ValidLegacyURL requires an explicit webhook URL.
func ValidLegacyURL(raw string) bool {
	return raw != "" && IsDiscordWebhook(raw)
}
