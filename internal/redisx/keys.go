package redisx

import "time"

const (
	// Session token per user: session:{user_id} -> signed JWT
	KeySession = "session:%s"

	// Cache of order status: order_status:{order_id} -> {"status":"...","reason":"..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Low-stock alert marker so each product alerts once: lowstock:{product_id}
	KeyLowStock = "lowstock:%s"
)

var (
	TTLSession     = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLLowStock    = 12 * time.Hour
)
