package fulfillment

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

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "fulfillment").Logger()

// OrderStore is the slice of order persistence the staff workflow needs.
type OrderStore interface {
	Get(ctx context.Context, id uuid.UUID) (shop.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, to shop.Status, reason string) (shop.Status, error)
	Delete(ctx context.Context, id, requestingUserID uuid.UUID) error
}

type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Orders      OrderStore
	Producer    publisher     // optional
	Redis       *redis.Client // optional status cache
	ServiceName string
}

// Transition moves the order into the requested status. Cancelling without a
// reason substitutes the default; leaving cancelled clears the reason.
func (s *Service) Transition(ctx context.Context, orderID uuid.UUID, to shop.Status, reason string) error {
	if !to.Valid() {
		return shop.ErrUnknownStatus
	}
	reason = shop.ReasonFor(to, reason)

	old, err := s.Orders.SetStatus(ctx, orderID, to, reason)
	if err != nil {
		return err
	}
	s.cacheStatus(ctx, orderID, to, reason)
	if old == to {
		return nil
	}

	logger.Info().
		Str("order_id", orderID.String()).
		Str("from", old.String()).
		Str("to", to.String()).
		Msg("order status changed")

	s.publishChanged(orderID, old, to, reason)
	return nil
}

// DeleteIfAllowed removes the order on behalf of its owning user while the
// order is still in its initial state.
func (s *Service) DeleteIfAllowed(ctx context.Context, orderID, requestingUserID uuid.UUID) error {
	if err := s.Orders.Delete(ctx, orderID, requestingUserID); err != nil {
		return err
	}
	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if err := s.Redis.Del(ctx, key).Err(); err != nil {
			logger.Warn().Err(err).Msg("status cache delete failed")
		}
	}
	return nil
}

// ConfirmAll confirms every order in the selection, skipping those already
// confirmed. Returns how many orders actually changed.
func (s *Service) ConfirmAll(ctx context.Context, orderIDs []uuid.UUID) (int, error) {
	changed := 0
	for _, id := range orderIDs {
		o, err := s.Orders.Get(ctx, id)
		if err != nil {
			return changed, err
		}
		if o.Status == shop.StatusConfirmed {
			continue
		}
		if err := s.Transition(ctx, id, shop.StatusConfirmed, ""); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// CancelAll cancels every order in the selection with one shared reason.
func (s *Service) CancelAll(ctx context.Context, orderIDs []uuid.UUID, reason string) (int, error) {
	changed := 0
	for _, id := range orderIDs {
		if err := s.Transition(ctx, id, shop.StatusCancelled, reason); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

func (s *Service) cacheStatus(ctx context.Context, orderID uuid.UUID, status shop.Status, reason string) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body := fmt.Sprintf(`{"status":%q,"reason":%q}`, status, reason)
	if err := s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		logger.Warn().Err(err).Msg("status cache write failed")
	}
}

func (s *Service) publishChanged(orderID uuid.UUID, old, to shop.Status, reason string) {
	if s.Producer == nil {
		return
	}
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderID.String(),
		Payload: kafkax.MustMarshal(shop.OrderStatusChangedPayload{
			OrderID:   orderID,
			OldStatus: old,
			NewStatus: to,
			Reason:    reason,
		}),
	}
	s.Producer.Publish(shop.PartitionKey(orderID.String()), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
