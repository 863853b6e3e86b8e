package checkout

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "checkout").Logger()

// CartReader loads the acting user's current cart lines.
type CartReader interface {
	Lines(ctx context.Context, userID uuid.UUID) ([]shop.CartLine, error)
}

// OrderCreator runs the atomic cart-to-order transaction.
type OrderCreator interface {
	CreateOrderTx(ctx context.Context, userID uuid.UUID, lines []shop.CartLine) (shop.Order, error)
}

// CredentialVerifier re-checks the user's password before the order is
// placed. Credential storage lives outside this package.
type CredentialVerifier interface {
	VerifyPassword(ctx context.Context, userID uuid.UUID, plaintext string) (bool, error)
}

type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Carts       CartReader
	Orders      OrderCreator
	Credentials CredentialVerifier
	Producer    publisher     // optional
	Redis       *redis.Client // optional status cache
	ServiceName string
}

// Execute converts the user's cart into an order. Preconditions fail fast in
// a fixed order (empty cart, stock, credential) without touching state; only
// then does the atomic transaction run, which re-validates stock under row
// locks.
func (s *Service) Execute(ctx context.Context, userID uuid.UUID, password string) (shop.Order, error) {
	lines, err := s.Carts.Lines(ctx, userID)
	if err != nil {
		return shop.Order{}, err
	}
	if len(lines) == 0 {
		return shop.Order{}, shop.ErrEmptyCart
	}

	for _, l := range lines {
		if l.Qty > l.Stock {
			return shop.Order{}, &shop.InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Requested:   l.Qty,
				Available:   l.Stock,
			}
		}
	}

	ok, err := s.Credentials.VerifyPassword(ctx, userID, password)
	if err != nil {
		return shop.Order{}, err
	}
	if !ok {
		return shop.Order{}, shop.ErrInvalidCredential
	}

	order, err := s.Orders.CreateOrderTx(ctx, userID, lines)
	if err != nil {
		return shop.Order{}, err
	}

	logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Str("total", order.Total.StringFixed(2)).
		Msg("order placed")

	s.cacheStatus(ctx, order)
	s.publishCreated(order, lines)
	return order, nil
}

func (s *Service) cacheStatus(ctx context.Context, order shop.Order) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, order.ID)
	body := fmt.Sprintf(`{"status":%q,"reason":""}`, order.Status)
	if err := s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		logger.Warn().Err(err).Msg("status cache write failed")
	}
}

func (s *Service) publishCreated(order shop.Order, lines []shop.CartLine) {
	if s.Producer == nil {
		return
	}
	items := make([]shop.ItemPrice, 0, len(lines))
	for _, l := range lines {
		items = append(items, shop.ItemPrice{ProductID: l.ProductID, Qty: l.Qty, Price: l.Price})
	}
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: order.ID.String(),
		Payload: kafkax.MustMarshal(shop.OrderCreatedPayload{
			OrderID: order.ID,
			UserID:  order.UserID,
			Items:   items,
			Total:   order.Total,
		}),
	}
	s.Producer.Publish(shop.PartitionKey(order.ID.String()), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
