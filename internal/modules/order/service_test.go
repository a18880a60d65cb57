package order

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memRepo implements Repository in memory with the same all-or-nothing stock
// contract as the postgres implementation.
type memRepo struct {
	prices map[string]decimal.Decimal
	stock  map[string]int
	orders map[string]*Order
}

func newMemRepo() *memRepo {
	return &memRepo{
		prices: map[string]decimal.Decimal{},
		stock:  map[string]int{},
		orders: map[string]*Order{},
	}
}

func (m *memRepo) addProduct(id string, price string, stock int) {
	m.prices[id] = decimal.RequireFromString(price)
	m.stock[id] = stock
}

func (m *memRepo) CreateWithItems(_ context.Context, o *Order, items []CheckoutItem, multiplier decimal.Decimal) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	staged := map[string]int{}
	for _, ci := range items {
		price, ok := m.prices[ci.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, ci.ProductID)
		}
		if m.stock[ci.ProductID]-staged[ci.ProductID] < ci.Quantity {
			return nil, fmt.Errorf("%w: product %s", ErrInsufficientStock, ci.ProductID)
		}
		staged[ci.ProductID] += ci.Quantity
		o.Items = append(o.Items, &Item{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: uuid.MustParse(ci.ProductID),
			Quantity:  ci.Quantity,
			UnitPrice: price,
		})
	}
	for id, qty := range staged {
		m.stock[id] -= qty
	}
	o.Total = ComputeTotal(o.Items, multiplier)
	m.orders[o.ID.String()] = o
	return o, nil
}

func (m *memRepo) FailAndRestock(_ context.Context, orderID string) error {
	o, ok := m.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	for _, it := range o.Items {
		m.stock[it.ProductID.String()] += it.Quantity
	}
	o.Status = StatusFailed
	return nil
}

func (m *memRepo) SetTracking(_ context.Context, orderID, trackingID string) error {
	o, ok := m.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.TrackingID = &trackingID
	o.Status = StatusProcessing
	return nil
}

func (m *memRepo) ApplyReconciliation(_ context.Context, orderID string, status Status, isPaid bool, meta PaymentMetadata) error {
	o, ok := m.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.IsPaid = isPaid
	if meta.Method != "" {
		o.PaymentMethod = &meta.Method
	}
	if meta.ConfirmationCode != "" {
		o.PaymentConfirmationCode = &meta.ConfirmationCode
	}
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (m *memRepo) GetByTrackingID(_ context.Context, trackingID string) (*Order, error) {
	for _, o := range m.orders {
		if o.TrackingID != nil && *o.TrackingID == trackingID {
			return o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (m *memRepo) ListByStore(_ context.Context, storeID string) ([]*Order, error) {
	var out []*Order
	for _, o := range m.orders {
		if o.StoreID.String() == storeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateAdmin(_ context.Context, orderID string, isPaid *bool, status *Status) error {
	o, ok := m.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if isPaid != nil {
		o.IsPaid = *isPaid
	}
	if status != nil {
		o.Status = *status
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, orderID string) error {
	delete(m.orders, orderID)
	return nil
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestComputeTotal(t *testing.T) {
	items := []*Item{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("5.50")},
	}

	total := ComputeTotal(items, decimal.NewFromInt(1))
	require.True(t, total.Equal(decimal.RequireFromString("25.50")), "got %s", total)

	scaled := ComputeTotal(items, decimal.NewFromInt(1000))
	require.True(t, scaled.Equal(decimal.RequireFromString("25500")), "got %s", scaled)
}

func TestCreateDecrementsStockExactly(t *testing.T) {
	repo := newMemRepo()
	p1 := uuid.New().String()
	p2 := uuid.New().String()
	p3 := uuid.New().String()
	repo.addProduct(p1, "10.00", 5)
	repo.addProduct(p2, "5.50", 3)
	repo.addProduct(p3, "99.00", 7)

	svc := NewService(repo)
	o, err := svc.Create(context.Background(), CreateOrderRequest{
		StoreID: uuid.New().String(),
		Items: []CheckoutItem{
			{ProductID: p1, Quantity: 2},
			{ProductID: p2, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, o.Status)
	require.True(t, o.Total.Equal(decimal.RequireFromString("25.50")), "got %s", o.Total)

	require.Equal(t, 3, repo.stock[p1])
	require.Equal(t, 2, repo.stock[p2])
	// Untouched product keeps its stock.
	require.Equal(t, 7, repo.stock[p3])
}

func TestCreateAllOrNothingOnInsufficientStock(t *testing.T) {
	repo := newMemRepo()
	p1 := uuid.New().String()
	p2 := uuid.New().String()
	repo.addProduct(p1, "10.00", 5)
	repo.addProduct(p2, "5.50", 1)

	svc := NewService(repo)
	_, err := svc.Create(context.Background(), CreateOrderRequest{
		StoreID: uuid.New().String(),
		Items: []CheckoutItem{
			{ProductID: p1, Quantity: 2},
			{ProductID: p2, Quantity: 4},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	require.Equal(t, 5, repo.stock[p1], "no stock change may survive a failed checkout")
	require.Equal(t, 1, repo.stock[p2])
	require.Empty(t, repo.orders)
}

func TestCreateEmptyCart(t *testing.T) {
	svc := NewService(newMemRepo())
	_, err := svc.Create(context.Background(), CreateOrderRequest{StoreID: uuid.New().String()})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateUnknownProduct(t *testing.T) {
	svc := NewService(newMemRepo())
	_, err := svc.Create(context.Background(), CreateOrderRequest{
		StoreID: uuid.New().String(),
		Items:   []CheckoutItem{{ProductID: uuid.New().String(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateAdminRejectsInvalidStatus(t *testing.T) {
	repo := newMemRepo()
	p := uuid.New().String()
	repo.addProduct(p, "10.00", 5)
	svc := NewService(repo)

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		StoreID: uuid.New().String(),
		Items:   []CheckoutItem{{ProductID: p, Quantity: 1}},
	})
	require.NoError(t, err)

	bogus := "SHIPPED_TO_MARS"
	_, err = svc.UpdateAdmin(context.Background(), o.ID.String(), AdminUpdateRequest{Status: &bogus})
	require.Error(t, err)
	require.Equal(t, StatusPending, repo.orders[o.ID.String()].Status)
}

func TestFailAndRestockRestoresStock(t *testing.T) {
	repo := newMemRepo()
	p := uuid.New().String()
	repo.addProduct(p, "10.00", 5)
	svc := NewService(repo)

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		StoreID: uuid.New().String(),
		Items:   []CheckoutItem{{ProductID: p, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, repo.stock[p])

	require.NoError(t, svc.FailAndRestock(context.Background(), o.ID.String()))
	require.Equal(t, 5, repo.stock[p])
	require.Equal(t, StatusFailed, repo.orders[o.ID.String()].Status)
}
