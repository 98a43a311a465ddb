package api

import (
	"errors"
	"net/http"

	"github.com/shohag/hookpad/internal/models"
	"github.com/shohag/hookpad/internal/settings"
)

type SettingsHandler struct {
	settings *settings.Service
}

func NewSettingsHandler(svc *settings.Service) *SettingsHandler {
	return &SettingsHandler{settings: svc}
}

type selectRequest struct {
	ID string `json:"id"`
}

func (h *SettingsHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.settings.Select(r.Context(), req.ID); err != nil {
		if errors.Is(err, settings.ErrUnknownSlot) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save selection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	slots, err := h.settings.Slots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load webhooks")
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *SettingsHandler) SaveWebhooks(w http.ResponseWriter, r *http.Request) {
	var req []models.WebhookSlot
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.settings.SaveSlots(r.Context(), req); err != nil {
		if errors.Is(err, settings.ErrInvalidWebhook) || errors.Is(err, settings.ErrTooManySlots) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save webhooks")
		return
	}

	h.ListWebhooks(w, r)
}

type legacyRequest struct {
	WebhookURL string `json:"webhookUrl"`
}

func (h *SettingsHandler) GetLegacy(w http.ResponseWriter, r *http.Request) {
	url, err := h.settings.Legacy(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load webhook")
		return
	}
	writeJSON(w, http.StatusOK, legacyRequest{WebhookURL: url})
}

func (h *SettingsHandler) SaveLegacy(w http.ResponseWriter, r *http.Request) {
	var req legacyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.settings.SaveLegacy(r.Context(), req.WebhookURL); err != nil {
		if errors.Is(err, settings.ErrInvalidLegacy) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save webhook")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
