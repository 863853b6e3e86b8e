package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-storefront/internal/auth"
	"github.com/ariefcatur/go-storefront/internal/checkout"
)

type CheckoutHandler struct {
	Checkout *checkout.Service
}

type checkoutReq struct {
	// Password is re-entered at checkout to confirm the acting user.
	Password string `json:"password"`
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Post("/checkout", h.execute)
}

func (h *CheckoutHandler) execute(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req checkoutReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	order, err := h.Checkout.Execute(r.Context(), id.UserID, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"order_id": order.ID.String(),
		"total":    order.Total.StringFixed(2),
		"status":   order.Status.String(),
	})
}
