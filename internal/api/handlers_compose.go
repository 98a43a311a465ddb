package api

import (
	"errors"
	"net/http"

	"github.com/shohag/hookpad/internal/compose"
	"github.com/shohag/hookpad/internal/settings"
	"github.com/shohag/hookpad/internal/surface"
	"github.com/shohag/hookpad/internal/webhook"
)

type ComposeHandler struct {
	surface  *surface.Surface
	settings *settings.Service
}

func NewComposeHandler(s *surface.Surface, svc *settings.Service) *ComposeHandler {
	return &ComposeHandler{surface: s, settings: svc}
}

type slotOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type selectionView struct {
	Options    []slotOption `json:"options"`
	SelectedID string       `json:"selected_id"`
	Disabled   bool         `json:"disabled"`
}

func newSelectionView(sel webhook.Selection) selectionView {
	v := selectionView{
		Options:    make([]slotOption, 0, len(sel.Slots)),
		SelectedID: sel.SelectedID,
		Disabled:   len(sel.Slots) == 0,
	}
	for _, slot := range sel.Slots {
		v.Options = append(v.Options, slotOption{ID: slot.ID, Label: slot.DisplayName()})
	}
	return v
}

type stateResponse struct {
	Selection selectionView    `json:"selection"`
	Surface   surface.Snapshot `json:"surface"`
}

func (h *ComposeHandler) State(w http.ResponseWriter, r *http.Request) {
	sel, err := h.settings.Selection(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load webhooks")
		return
	}

	snap := h.surface.Snapshot()
	if len(sel.Slots) == 0 && snap.Status == "" {
		h.surface.SetStatus("Set a webhook in Settings.")
		snap = h.surface.Snapshot()
	}

	writeJSON(w, http.StatusOK, stateResponse{
		Selection: newSelectionView(sel),
		Surface:   snap,
	})
}

type compileResponse struct {
	Result compose.Result `json:"result"`
	State  compose.State  `json:"state"`
}

func (h *ComposeHandler) Compile(w http.ResponseWriter, r *http.Request) {
	var req compose.State
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res := h.surface.Compile(req)
	writeJSON(w, http.StatusOK, compileResponse{Result: res, State: res.Normalized(req)})
}

func (h *ComposeHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req compose.State
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out := h.surface.SendSync(r.Context(), req)
	writeJSON(w, sendStatusCode(out.Err), out)
}

func sendStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, surface.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, webhook.ErrNothingToSend), errors.Is(err, webhook.ErrNoDestination):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
