package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-storefront/internal/auth"
	"github.com/ariefcatur/go-storefront/internal/fulfillment"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

// OrderReader is the slice of order persistence the customer routes need.
type OrderReader interface {
	Get(ctx context.Context, id uuid.UUID) (shop.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]shop.Order, error)
	Items(ctx context.Context, orderID uuid.UUID) ([]shop.OrderItem, error)
}

type OrdersHandler struct {
	Orders      OrderReader
	Fulfillment *fulfillment.Service
	Redis       *redis.Client
}

type orderResp struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Total        string          `json:"total"`
	CancelReason string          `json:"cancel_reason,omitempty"`
	Items        []orderItemResp `json:"items,omitempty"`
}

type orderItemResp struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	Price     string `json:"price"`
}

// Register mounts the customer-facing order routes.
func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Delete("/orders/{id}", h.deleteOrder)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	orders, err := h.Orders.ListByUser(r.Context(), id.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	o, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if o.UserID != id.UserID && !id.Staff {
		writeErr(w, shop.ErrNotFound)
		return
	}
	items, err := h.Orders.Items(r.Context(), orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o, items))
}

// getStatus checks ownership against the database, then serves from the
// Redis status cache when present, repopulating it otherwise. Foreign orders
// are hidden behind 404 just like getOrder.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	o, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if o.UserID != id.UserID && !id.Staff {
		writeErr(w, shop.ErrNotFound)
		return
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(s))
			return
		}
	}

	body, _ := json.Marshal(map[string]string{"status": o.Status.String(), "reason": o.CancelReason})
	if h.Redis != nil {
		_ = h.Redis.Set(r.Context(), key, body, redisx.TTLStatusCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	if err := h.Fulfillment.DeleteIfAllowed(r.Context(), orderID, id.UserID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toOrderResp(o shop.Order, items []shop.OrderItem) orderResp {
	resp := orderResp{
		ID:           o.ID.String(),
		Status:       o.Status.String(),
		Total:        o.Total.StringFixed(2),
		CancelReason: o.CancelReason,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID: it.ProductID.String(),
			Qty:       it.Qty,
			Price:     it.Price.StringFixed(2),
		})
	}
	return resp
}
