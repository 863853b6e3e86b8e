package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-storefront/internal/auth"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

type CartHandler struct {
	Cart *cart.Service
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type cartLineResp struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Qty         int    `json:"qty"`
	Price       string `json:"price"`
}

type cartSummaryResp struct {
	Lines      []cartLineResp `json:"lines"`
	TotalQty   int            `json:"total_qty"`
	TotalPrice string         `json:"total_price"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.summary)
	r.Post("/cart/items", h.addItem)
	r.Post("/cart/items/{productID}/decrement", h.decrementItem)
	r.Delete("/cart/items/{productID}", h.removeItem)
}

func (h *CartHandler) summary(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	s, err := h.Cart.Summary(r.Context(), id.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResp(s))
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req addItemReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id"})
		return
	}

	res, err := h.Cart.AddItem(r.Context(), id.UserID, productID, req.Qty)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"line_qty": res.LineQty, "total_qty": res.TotalQty})
}

func (h *CartHandler) decrementItem(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	if err := h.Cart.DecrementItem(r.Context(), id.UserID, productID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	if err := h.Cart.RemoveItem(r.Context(), id.UserID, productID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toSummaryResp(s shop.CartSummary) cartSummaryResp {
	resp := cartSummaryResp{
		Lines:      make([]cartLineResp, 0, len(s.Lines)),
		TotalQty:   s.TotalQty,
		TotalPrice: s.TotalPrice.StringFixed(2),
	}
	for _, l := range s.Lines {
		resp.Lines = append(resp.Lines, cartLineResp{
			ProductID:   l.ProductID.String(),
			ProductName: l.ProductName,
			Qty:         l.Qty,
			Price:       l.Price.StringFixed(2),
		})
	}
	return resp
}
