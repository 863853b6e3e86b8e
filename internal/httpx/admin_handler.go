package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-storefront/internal/fulfillment"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

// AdminHandler exposes the staff-only order fulfillment routes. Callers are
// gated by auth.RequireStaff.
type AdminHandler struct {
	Fulfillment *fulfillment.Service
}

type statusReq struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type batchReq struct {
	OrderIDs []string `json:"order_ids"`
	Reason   string   `json:"reason"`
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Post("/orders/{id}/status", h.setStatus)
	r.Post("/orders/confirm", h.confirmAll)
	r.Post("/orders/cancel", h.cancelAll)
}

func (h *AdminHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	var req statusReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := h.Fulfillment.Transition(r.Context(), orderID, shop.Status(req.Status), req.Reason); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) confirmAll(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.parseBatch(w, r, nil)
	if !ok {
		return
	}
	changed, err := h.Fulfillment.ConfirmAll(r.Context(), ids)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"confirmed": changed})
}

func (h *AdminHandler) cancelAll(w http.ResponseWriter, r *http.Request) {
	var reason string
	ids, ok := h.parseBatch(w, r, &reason)
	if !ok {
		return
	}
	changed, err := h.Fulfillment.CancelAll(r.Context(), ids, reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cancelled": changed})
}

func (h *AdminHandler) parseBatch(w http.ResponseWriter, r *http.Request, reason *string) ([]uuid.UUID, bool) {
	var req batchReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return nil, false
	}
	if len(req.OrderIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing order_ids"})
		return nil, false
	}
	ids := make([]uuid.UUID, 0, len(req.OrderIDs))
	for _, s := range req.OrderIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id: " + s})
			return nil, false
		}
		ids = append(ids, id)
	}
	if reason != nil {
		*reason = req.Reason
	}
	return ids, true
}
