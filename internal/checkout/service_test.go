package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

// memStore emulates the SQL store with the same contract as the real
// transaction: stock re-validation and decrement happen atomically under a
// single lock.
type memStore struct {
	mu     sync.Mutex
	stock  map[uuid.UUID]int
	price  map[uuid.UUID]decimal.Decimal
	name   map[uuid.UUID]string
	carts  map[uuid.UUID]map[uuid.UUID]int // userID -> productID -> qty
	orders []shop.Order
	items  map[uuid.UUID][]shop.OrderItem
}

func newMemStore() *memStore {
	return &memStore{
		stock: map[uuid.UUID]int{},
		price: map[uuid.UUID]decimal.Decimal{},
		name:  map[uuid.UUID]string{},
		carts: map[uuid.UUID]map[uuid.UUID]int{},
		items: map[uuid.UUID][]shop.OrderItem{},
	}
}

func (m *memStore) addProduct(name string, price string, stock int) uuid.UUID {
	id := uuid.New()
	m.stock[id] = stock
	m.price[id] = decimal.RequireFromString(price)
	m.name[id] = name
	return id
}

func (m *memStore) putInCart(userID, productID uuid.UUID, qty int) {
	if m.carts[userID] == nil {
		m.carts[userID] = map[uuid.UUID]int{}
	}
	m.carts[userID][productID] = qty
}

func (m *memStore) Lines(ctx context.Context, userID uuid.UUID) ([]shop.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []shop.CartLine
	for pid, qty := range m.carts[userID] {
		out = append(out, shop.CartLine{
			ProductID:   pid,
			ProductName: m.name[pid],
			Qty:         qty,
			Price:       m.price[pid],
			Stock:       m.stock[pid],
		})
	}
	return out, nil
}

func (m *memStore) CreateOrderTx(ctx context.Context, userID uuid.UUID, lines []shop.CartLine) (shop.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := decimal.Zero
	for _, l := range lines {
		if m.stock[l.ProductID] < l.Qty {
			return shop.Order{}, &shop.InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: m.name[l.ProductID],
				Requested:   l.Qty,
				Available:   m.stock[l.ProductID],
			}
		}
		total = total.Add(m.price[l.ProductID].Mul(decimal.NewFromInt(int64(l.Qty))))
	}

	order := shop.Order{ID: uuid.New(), UserID: userID, Status: shop.StatusNew, Total: total}
	for _, l := range lines {
		m.items[order.ID] = append(m.items[order.ID], shop.OrderItem{
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Qty:       l.Qty,
			Price:     m.price[l.ProductID],
		})
		m.stock[l.ProductID] -= l.Qty
	}
	// only the ordered lines leave the cart
	for _, l := range lines {
		delete(m.carts[userID], l.ProductID)
	}
	m.orders = append(m.orders, order)
	return order, nil
}

type fakeVerifier struct{ password string }

func (f fakeVerifier) VerifyPassword(_ context.Context, _ uuid.UUID, plaintext string) (bool, error) {
	return plaintext == f.password, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	values [][]byte
}

func (c *capturePublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, value)
}

func newService(store *memStore, password string) (*Service, *capturePublisher) {
	pub := &capturePublisher{}
	return &Service{
		Carts:       store,
		Orders:      store,
		Credentials: fakeVerifier{password: password},
		Producer:    pub,
		ServiceName: "test",
	}, pub
}

func TestExecuteEmptyCart(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc, _ := newService(store, "pw")

	_, err := svc.Execute(context.Background(), uuid.New(), "pw")
	require.ErrorIs(t, err, shop.ErrEmptyCart)
	require.Empty(t, store.orders)
}

func TestExecuteInsufficientStockNamesProduct(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	user := uuid.New()
	pid := store.addProduct("Turntable C", "10.00", 0)
	store.putInCart(user, pid, 1)

	svc, pub := newService(store, "pw")
	_, err := svc.Execute(context.Background(), user, "pw")

	var stockErr *shop.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "Turntable C", stockErr.ProductName)

	// cart unchanged, no order, no event
	require.Equal(t, 1, store.carts[user][pid])
	require.Empty(t, store.orders)
	require.Empty(t, pub.values)
}

func TestExecuteStockCheckedBeforeCredential(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	user := uuid.New()
	pid := store.addProduct("C", "10.00", 0)
	store.putInCart(user, pid, 1)

	// wrong password AND insufficient stock: the stock failure wins
	svc, _ := newService(store, "pw")
	_, err := svc.Execute(context.Background(), user, "wrong")

	var stockErr *shop.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
}

func TestExecuteInvalidCredentialLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	user := uuid.New()
	pid := store.addProduct("A", "100.00", 5)
	store.putInCart(user, pid, 2)

	svc, pub := newService(store, "pw")
	_, err := svc.Execute(context.Background(), user, "wrong")
	require.ErrorIs(t, err, shop.ErrInvalidCredential)

	require.Equal(t, 5, store.stock[pid])
	require.Equal(t, 2, store.carts[user][pid])
	require.Empty(t, store.orders)
	require.Empty(t, pub.values)
}

func TestExecuteSuccess(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	user := uuid.New()
	a := store.addProduct("A", "100.00", 5)
	b := store.addProduct("B", "50.00", 1)
	store.putInCart(user, a, 2)
	store.putInCart(user, b, 1)

	svc, pub := newService(store, "pw")
	order, err := svc.Execute(context.Background(), user, "pw")
	require.NoError(t, err)

	require.Equal(t, "250.00", order.Total.StringFixed(2))
	require.Equal(t, shop.StatusNew, order.Status)
	require.Equal(t, 3, store.stock[a])
	require.Equal(t, 0, store.stock[b])
	require.Empty(t, store.carts[user], "cart is emptied")
	require.Len(t, store.items[order.ID], 2)
	require.Len(t, pub.values, 1, "order.created published once")
}

func TestCheckoutKeepsLinesAddedAfterRead(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	user := uuid.New()
	a := store.addProduct("A", "100.00", 5)
	b := store.addProduct("B", "50.00", 5)
	store.putInCart(user, a, 1)

	lines, err := store.Lines(context.Background(), user)
	require.NoError(t, err)

	// a line lands in the cart between the read and the transaction
	store.putInCart(user, b, 1)

	order, err := store.CreateOrderTx(context.Background(), user, lines)
	require.NoError(t, err)

	require.Len(t, store.items[order.ID], 1, "only the read lines are ordered")
	require.Equal(t, 1, store.carts[user][b], "late line survives for the next checkout")
	require.NotContains(t, store.carts[user], a)
}

func TestPriceSnapshotSurvivesPriceChange(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	user := uuid.New()
	a := store.addProduct("A", "100.00", 5)
	store.putInCart(user, a, 1)

	svc, _ := newService(store, "pw")
	order, err := svc.Execute(context.Background(), user, "pw")
	require.NoError(t, err)

	store.mu.Lock()
	store.price[a] = decimal.RequireFromString("999.00")
	store.mu.Unlock()

	require.Equal(t, "100.00", store.items[order.ID][0].Price.StringFixed(2))
	require.Equal(t, "100.00", order.Total.StringFixed(2))
}

func TestNoOversellUnderConcurrency(t *testing.T) {
	t.Parallel()

	const stock = 5
	const buyers = 8

	store := newMemStore()
	pid := store.addProduct("A", "10.00", stock)

	users := make([]uuid.UUID, buyers)
	for i := range users {
		users[i] = uuid.New()
		store.putInCart(users[i], pid, 1)
	}

	svc, _ := newService(store, "pw")

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Execute(context.Background(), users[i], "pw")
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *shop.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		rejected++
	}
	require.Equal(t, stock, succeeded)
	require.Equal(t, buyers-stock, rejected)
	require.Equal(t, 0, store.stock[pid])
	require.GreaterOrEqual(t, store.stock[pid], 0, "stock never goes negative")
}
