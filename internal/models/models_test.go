package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotID(t *testing.T) {
	assert.Equal(t, "wh_1", SlotID(0))
	assert.Equal(t, "wh_5", SlotID(MaxWebhookSlots-1))
}

func TestFindSlot(t *testing.T) {
	slots := []WebhookSlot{{ID: "wh_1"}, {ID: "wh_4", Name: "Ops"}}

	got, ok := FindSlot(slots, "wh_4")
	assert.True(t, ok)
	assert.Equal(t, "Ops", got.DisplayName())

	_, ok = FindSlot(slots, "wh_2")
	assert.False(t, ok)
	assert.Equal(t, "Unnamed", slots[0].DisplayName())
}

func TestNewIDIsPrefixedAndOrdered(t *testing.T) {
	a := NewID("snd")
	b := NewID("snd")
	assert.True(t, strings.HasPrefix(a, "snd_"))
	assert.Len(t, a, len("snd_")+26)
	assert.Less(t, a, b)
}
