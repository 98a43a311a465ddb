// Package compose turns the compose form state into the exact message text
// that is posted to a webhook.
package compose

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinMinutes = 0
	MaxMinutes = 999
	MinSeconds = 0
	MaxSeconds = 59

	// Placeholder is shown in the preview when nothing would be sent.
	Placeholder = "—"
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

// State is the per-surface form state. Minutes and Seconds hold the raw
// field text; they are normalized by Compile.
type State struct {
	Text             string `json:"text"`
	Minutes          string `json:"minutes"`
	Seconds          string `json:"seconds"`
	IncludeTimestamp bool   `json:"include_timestamp"`
}

type Result struct {
	Message string `json:"message"`
	Preview string `json:"preview"`
	Minutes int    `json:"minutes"`
	Seconds int    `json:"seconds"`
	Offset  int    `json:"offset_seconds"`
}

// Normalized returns the state with the numeric fields rewritten to their
// clamped values, as a surface writes them back into its inputs.
func (r Result) Normalized(s State) State {
	s.Minutes = fmt.Sprint(r.Minutes)
	s.Seconds = fmt.Sprint(r.Seconds)
	return s
}

type Compiler struct {
	clock Clock
}

func NewCompiler(clock Clock) *Compiler {
	if clock == nil {
		clock = time.Now
	}
	return &Compiler{clock: clock}
}

func (c *Compiler) Compile(s State) Result {
	text := strings.TrimSpace(s.Text)
	m := ClampInt(s.Minutes, MinMinutes, MaxMinutes)
	sec := ClampInt(s.Seconds, MinSeconds, MaxSeconds)

	offset := m*60 + sec

	var parts []string
	if text != "" {
		parts = append(parts, text)
	}
	// a zero offset would render as "now", which nobody asked for
	if s.IncludeTimestamp && offset > 0 {
		parts = append(parts, RelativeTimestamp(c.clock(), offset))
	}

	msg := strings.Join(parts, " ")
	preview := msg
	if preview == "" {
		preview = Placeholder
	}

	return Result{
		Message: msg,
		Preview: preview,
		Minutes: m,
		Seconds: sec,
		Offset:  offset,
	}
}

// RelativeTimestamp formats a Discord relative-time marker for now+offset.
// Discord renders it client-side as e.g. "in 5 minutes".
func RelativeTimestamp(now time.Time, offsetSeconds int) string {
	return fmt.Sprintf("<t:%d:R>", now.Unix()+int64(offsetSeconds))
}

// ClampInt parses the leading base-10 integer of raw and clamps it to
// [min, max]. Input without a leading integer yields min.
func ClampInt(raw string, min, max int) int {
	n, ok := parseLeadingInt(raw, max)
	if !ok {
		return min
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// parseLeadingInt reads an optional sign followed by digits, ignoring any
// trailing text. Magnitudes beyond limit saturate so huge inputs cannot
// overflow.
func parseLeadingInt(raw string, limit int) (int, bool) {
	s := strings.TrimSpace(raw)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	bound := limit
	if bound < 0 {
		bound = -bound
	}
	bound++

	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n <= bound {
			n = n*10 + int(s[digits]-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
