package webhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/shohag/hookpad/internal/models"
	"github.com/shohag/hookpad/internal/storage"
)

// Selection is the multi-slot selector state after reconciling the stored
// selection against the stored slots.
type Selection struct {
	Slots      []models.WebhookSlot `json:"slots"`
	SelectedID string               `json:"selected_id"`
	// StoredID is what was persisted before reconciliation.
	StoredID string `json:"-"`
}

// Reconciled reports whether SelectedID differs from the persisted value.
func (s Selection) Reconciled() bool {
	return s.SelectedID != s.StoredID
}

func (s Selection) Selected() (models.WebhookSlot, bool) {
	return models.FindSlot(s.Slots, s.SelectedID)
}

// Resolver finds the active destination from the config store. Every call
// reads the store so changes made by other surfaces are always visible.
type Resolver struct {
	store storage.Store
}

func NewResolver(store storage.Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) Selection(ctx context.Context) (Selection, error) {
	vals, err := r.store.Get(ctx, storage.KeyWebhooks, storage.KeySelectedWebhookID)
	if err != nil {
		return Selection{}, fmt.Errorf("failed to read webhooks: %w", err)
	}

	var slots []models.WebhookSlot
	if _, err := vals.Decode(storage.KeyWebhooks, &slots); err != nil {
		return Selection{}, err
	}

	sel := Selection{
		Slots:    slots,
		StoredID: vals.String(storage.KeySelectedWebhookID),
	}
	sel.SelectedID = ReconcileSelection(slots, sel.StoredID)
	return sel, nil
}

// SelectedURL returns the URL of the selected slot, falling back to the
// first slot. It returns "" when no slot exists.
func (r *Resolver) SelectedURL(ctx context.Context) (string, error) {
	sel, err := r.Selection(ctx)
	if err != nil {
		return "", err
	}
	slot, ok := sel.Selected()
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(slot.URL), nil
}

func (r *Resolver) LegacyURL(ctx context.Context) (string, error) {
	vals, err := r.store.Get(ctx, storage.KeyWebhookURL)
	if err != nil {
		return "", fmt.Errorf("failed to read webhook url: %w", err)
	}
	return strings.TrimSpace(vals.String(storage.KeyWebhookURL)), nil
}

// SelectedTarget resolves through the multi-slot selection.
func (r *Resolver) SelectedTarget() Target {
	return Target{Resolve: r.SelectedURL, Missing: ErrNoWebhookSelected}
}

// LegacyTarget resolves through the single legacy webhook URL.
func (r *Resolver) LegacyTarget() Target {
	return Target{Resolve: r.LegacyURL, Missing: ErrNoWebhookSet}
}

// ReconcileSelection keeps id when it names one of slots, otherwise picks
// the first slot, or "" when there are none.
func ReconcileSelection(slots []models.WebhookSlot, id string) string {
	if _, ok := models.FindSlot(slots, id); ok {
		return id
	}
	if len(slots) > 0 {
		return slots[0].ID
	}
	return ""
}
