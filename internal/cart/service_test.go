package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

// memRepo mirrors the SQL repository contract: one line per product, and the
// additive increment plus its ceiling check run atomically under one lock,
// like the upsert under the line's row lock.
type memRepo struct {
	mu      sync.Mutex
	stock   map[uuid.UUID]int
	price   map[uuid.UUID]decimal.Decimal
	lines   map[uuid.UUID]map[uuid.UUID]int // userID -> productID -> qty
	ensured map[uuid.UUID]bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		stock:   map[uuid.UUID]int{},
		price:   map[uuid.UUID]decimal.Decimal{},
		lines:   map[uuid.UUID]map[uuid.UUID]int{},
		ensured: map[uuid.UUID]bool{},
	}
}

func (m *memRepo) addProduct(price string, stock int) uuid.UUID {
	id := uuid.New()
	m.stock[id] = stock
	m.price[id] = decimal.RequireFromString(price)
	return id
}

func (m *memRepo) EnsureCart(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured[userID] = true
	if m.lines[userID] == nil {
		m.lines[userID] = map[uuid.UUID]int{}
	}
	return uuid.New(), nil
}

func (m *memRepo) Lines(_ context.Context, userID uuid.UUID) ([]shop.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []shop.CartLine
	for pid, qty := range m.lines[userID] {
		out = append(out, shop.CartLine{ProductID: pid, Qty: qty, Price: m.price[pid], Stock: m.stock[pid]})
	}
	return out, nil
}

func (m *memRepo) AddLine(_ context.Context, userID, productID uuid.UUID, qty int) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stock[productID]; !ok {
		return 0, 0, shop.ErrNotFound
	}
	if m.lines[userID] == nil {
		m.lines[userID] = map[uuid.UUID]int{}
	}
	if m.lines[userID][productID]+qty > m.stock[productID] {
		return 0, 0, shop.ErrOutOfStock
	}
	m.lines[userID][productID] += qty
	total := 0
	for _, q := range m.lines[userID] {
		total += q
	}
	return m.lines[userID][productID], total, nil
}

func (m *memRepo) DecrementLine(_ context.Context, userID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lines[userID][productID] == 0 {
		return nil
	}
	m.lines[userID][productID]--
	if m.lines[userID][productID] == 0 {
		delete(m.lines[userID], productID)
	}
	return nil
}

func (m *memRepo) RemoveLine(_ context.Context, userID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines[userID], productID)
	return nil
}

func TestAddItemDefaultsToOne(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	user := uuid.New()
	pid := repo.addProduct("10.00", 5)
	svc := &Service{Repo: repo}

	res, err := svc.AddItem(context.Background(), user, pid, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.LineQty)
	require.Equal(t, 1, res.TotalQty)
}

func TestAddItemKeepsOneLinePerProduct(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	user := uuid.New()
	pid := repo.addProduct("10.00", 5)
	svc := &Service{Repo: repo}
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user, pid, 2)
	require.NoError(t, err)
	res, err := svc.AddItem(ctx, user, pid, 1)
	require.NoError(t, err)

	require.Equal(t, 3, res.LineQty)
	require.Len(t, repo.lines[user], 1, "single line for the product")
}

func TestAddItemOutOfStock(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	user := uuid.New()
	pid := repo.addProduct("10.00", 2)
	svc := &Service{Repo: repo}
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user, pid, 2)
	require.NoError(t, err)

	// existing 2 + 1 would exceed stock 2
	_, err = svc.AddItem(ctx, user, pid, 1)
	require.ErrorIs(t, err, shop.ErrOutOfStock)
	require.Equal(t, 2, repo.lines[user][pid], "line unchanged")
}

func TestConcurrentAddsNeverLoseIncrements(t *testing.T) {
	t.Parallel()

	const stock = 5
	const adders = 8

	repo := newMemRepo()
	user := uuid.New()
	pid := repo.addProduct("10.00", stock)
	svc := &Service{Repo: repo}

	var wg sync.WaitGroup
	errs := make([]error, adders)
	for i := 0; i < adders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddItem(context.Background(), user, pid, 1)
		}(i)
	}
	wg.Wait()

	accepted, rejected := 0, 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		require.ErrorIs(t, err, shop.ErrOutOfStock)
		rejected++
	}
	require.Equal(t, stock, accepted)
	require.Equal(t, adders-stock, rejected)
	require.Equal(t, stock, repo.lines[user][pid], "every accepted add is counted")
}

func TestDecrementDeletesAtZeroAndIgnoresMissing(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	user := uuid.New()
	pid := repo.addProduct("10.00", 5)
	svc := &Service{Repo: repo}
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user, pid, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DecrementItem(ctx, user, pid))
	require.NotContains(t, repo.lines[user], pid)

	// missing line is a no-op, not an error
	require.NoError(t, svc.DecrementItem(ctx, user, pid))
	require.NoError(t, svc.RemoveItem(ctx, user, pid))
}

func TestSummaryLazilyCreatesCart(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	user := uuid.New()
	svc := &Service{Repo: repo}

	s, err := svc.Summary(context.Background(), user)
	require.NoError(t, err)
	require.True(t, repo.ensured[user], "empty cart created")
	require.Zero(t, s.TotalQty)
	require.True(t, s.TotalPrice.IsZero())
}

func TestSummaryTotals(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	user := uuid.New()
	a := repo.addProduct("100.00", 5)
	b := repo.addProduct("50.00", 1)
	svc := &Service{Repo: repo}
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user, a, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, b, 1)
	require.NoError(t, err)

	s, err := svc.Summary(ctx, user)
	require.NoError(t, err)
	require.Equal(t, 3, s.TotalQty)
	require.Equal(t, "250.00", s.TotalPrice.StringFixed(2))
}
