package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "notifier").Logger()

// StockReader looks up current product state after an order was placed.
type StockReader interface {
	Get(ctx context.Context, id uuid.UUID) (shop.Product, error)
}

// Service watches order.created events and raises a low-stock warning once
// per product while its stock stays below the threshold.
type Service struct {
	Products    StockReader
	Redis       *redis.Client
	Threshold   int
	ServiceName string
}

// HandleOrderCreated is mounted as the consumer handler.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shop.EventOrderCreated {
		return nil
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	var p shop.OrderCreatedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}

	for _, it := range p.Items {
		product, err := s.Products.Get(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if !s.LowStock(product) {
			continue
		}
		if s.Redis != nil {
			akey := fmt.Sprintf(redisx.KeyLowStock, product.ID)
			set, err := s.Redis.SetNX(ctx, akey, "1", redisx.TTLLowStock).Result()
			if err == nil && !set {
				continue // already alerted recently
			}
		}
		logger.Warn().
			Str("product_id", product.ID.String()).
			Str("sku", product.SKU).
			Int("stock", product.Stock).
			Int("threshold", s.Threshold).
			Msg("low stock")
	}
	return nil
}

// LowStock reports whether the product has fallen to or below the alert
// threshold.
func (s *Service) LowStock(p shop.Product) bool {
	return p.Stock <= s.Threshold
}
