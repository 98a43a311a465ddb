// Package settings implements the two settings surfaces: the five-slot
// webhook list and the legacy single webhook URL.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shohag/hookpad/internal/models"
	"github.com/shohag/hookpad/internal/storage"
	"github.com/shohag/hookpad/internal/webhook"
)

var (
	ErrInvalidWebhook = errors.New("one or more webhook URLs don't look valid (must be Discord /api/webhooks/)")
	ErrInvalidLegacy  = errors.New("webhook URL doesn't look valid (must be Discord /api/webhooks/)")
	ErrTooManySlots   = fmt.Errorf("at most %d webhooks can be saved", models.MaxWebhookSlots)
	ErrUnknownSlot    = errors.New("unknown webhook slot")
)

type Service struct {
	store    storage.Store
	resolver *webhook.Resolver
	log      zerolog.Logger
}

func NewService(store storage.Store, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		resolver: webhook.NewResolver(store),
		log:      log.With().Str("component", "settings").Logger(),
	}
}

// Slots returns all five positional slots, unused ones left blank.
func (s *Service) Slots(ctx context.Context) ([]models.WebhookSlot, error) {
	sel, err := s.resolver.Selection(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.WebhookSlot, models.MaxWebhookSlots)
	for i := range out {
		id := models.SlotID(i)
		found, ok := models.FindSlot(sel.Slots, id)
		if !ok {
			found = models.WebhookSlot{ID: id}
		}
		out[i] = found
	}
	return out, nil
}

// SaveSlots persists the slot form. inputs are positional: inputs[i] is
// slot i+1 whatever ID it carries. Slots without a URL are dropped, and the
// selection is kept when its slot survives, otherwise moved to the first
// remaining slot.
func (s *Service) SaveSlots(ctx context.Context, inputs []models.WebhookSlot) error {
	if len(inputs) > models.MaxWebhookSlots {
		return ErrTooManySlots
	}

	webhooks := make([]models.WebhookSlot, 0, len(inputs))
	for i, in := range inputs {
		slot := models.WebhookSlot{
			ID:   models.SlotID(i),
			Name: strings.TrimSpace(in.Name),
			URL:  strings.TrimSpace(in.URL),
		}
		if slot.URL == "" {
			continue
		}
		webhooks = append(webhooks, slot)
	}

	for _, w := range webhooks {
		if !webhook.ValidSlotURL(w.URL) {
			return ErrInvalidWebhook
		}
	}

	vals, err := s.store.Get(ctx, storage.KeySelectedWebhookID)
	if err != nil {
		return fmt.Errorf("failed to read selection: %w", err)
	}
	selected := webhook.ReconcileSelection(webhooks, vals.String(storage.KeySelectedWebhookID))

	err = s.store.Set(ctx, map[string]any{
		storage.KeyWebhooks:          webhooks,
		storage.KeySelectedWebhookID: selected,
	})
	if err != nil {
		return fmt.Errorf("failed to save webhooks: %w", err)
	}

	s.log.Info().Int("webhooks", len(webhooks)).Str("selected", selected).Msg("webhooks saved")
	return nil
}

// SlotUpdate carries the fields to change on one slot. A nil field keeps
// the stored value.
type SlotUpdate struct {
	Name *string
	URL  *string
}

// UpdateSlot applies upd to slot n (1-based) and saves the whole form.
func (s *Service) UpdateSlot(ctx context.Context, n int, upd SlotUpdate) error {
	if n < 1 || n > models.MaxWebhookSlots {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, n)
	}
	slots, err := s.Slots(ctx)
	if err != nil {
		return err
	}
	if upd.Name != nil {
		slots[n-1].Name = *upd.Name
	}
	if upd.URL != nil {
		slots[n-1].URL = *upd.URL
	}
	return s.SaveSlots(ctx, slots)
}

// SetSlot replaces both fields of slot n.
func (s *Service) SetSlot(ctx context.Context, n int, name, url string) error {
	return s.UpdateSlot(ctx, n, SlotUpdate{Name: &name, URL: &url})
}

// ClearSlot empties slot n, which removes it from the saved set.
func (s *Service) ClearSlot(ctx context.Context, n int) error {
	return s.SetSlot(ctx, n, "", "")
}

// Select persists id as the active slot.
func (s *Service) Select(ctx context.Context, id string) error {
	sel, err := s.resolver.Selection(ctx)
	if err != nil {
		return err
	}
	if _, ok := models.FindSlot(sel.Slots, id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, id)
	}
	return s.store.Set(ctx, map[string]any{storage.KeySelectedWebhookID: id})
}

// Selection returns the selector state, persisting the reconciled id when
// the stored one no longer names a slot.
func (s *Service) Selection(ctx context.Context) (webhook.Selection, error) {
	sel, err := s.resolver.Selection(ctx)
	if err != nil {
		return sel, err
	}
	if sel.Reconciled() {
		if err := s.store.Set(ctx, map[string]any{storage.KeySelectedWebhookID: sel.SelectedID}); err != nil {
			return sel, fmt.Errorf("failed to save selection: %w", err)
		}
		s.log.Debug().Str("from", sel.StoredID).Str("to", sel.SelectedID).Msg("selection reconciled")
		sel.StoredID = sel.SelectedID
	}
	return sel, nil
}

func (s *Service) Legacy(ctx context.Context) (string, error) {
	return s.resolver.LegacyURL(ctx)
}

func (s *Service) SaveLegacy(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if !webhook.ValidLegacyURL(url) {
		return ErrInvalidLegacy
	}
	if err := s.store.Set(ctx, map[string]any{storage.KeyWebhookURL: url}); err != nil {
		return fmt.Errorf("failed to save webhook url: %w", err)
	}
	s.log.Info().Msg("legacy webhook saved")
	return nil
}
