package models

import "fmt"

// MaxWebhookSlots is the number of slots the settings surfaces offer.
const MaxWebhookSlots = 5

type WebhookSlot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SlotID returns the stable identifier for the slot at zero-based position i.
func SlotID(i int) string {
	return fmt.Sprintf("wh_%d", i+1)
}

// DisplayName is the label a selector shows for the slot.
func (s WebhookSlot) DisplayName() string {
	if s.Name == "" {
		return "Unnamed"
	}
	return s.Name
}

func FindSlot(slots []WebhookSlot, id string) (WebhookSlot, bool) {
	for _, s := range slots {
		if s.ID == id {
			return s, true
		}
	}
	return WebhookSlot{}, false
}
