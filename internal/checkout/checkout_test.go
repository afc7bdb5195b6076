package checkout

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaria-mx/lunaria-api/internal/models"
)

// memoryCatalog and memoryOrders are in-memory fakes for the service.

type memoryCatalog struct {
	products map[int64]models.Product
}

func (c *memoryCatalog) ProductsByIDs(_ context.Context, ids []int64) (map[int64]models.Product, error) {
	out := make(map[int64]models.Product)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type memoryOrders struct {
	orders   []*models.Order
	items    [][]models.OrderItem
	failNext error // simulates an item-insert failure mid transaction
}

func (o *memoryOrders) Create(_ context.Context, order *models.Order, items []models.OrderItem) error {
	if o.failNext != nil {
		// Nothing persisted on failure: all-or-nothing, like the SQL transaction.
		return o.failNext
	}
	order.ID = int64(len(o.orders) + 1)
	o.orders = append(o.orders, order)
	o.items = append(o.items, items)
	return nil
}

func testService(failOrders error) (*Service, *memoryOrders) {
	catalog := &memoryCatalog{products: map[int64]models.Product{
		1: {ID: 1, SKU: "VES-001", Name: "Vestido Midi", Price: 8500, Status: "active",
			MainImage: "/img/vestido.jpg",
			Variants:  models.ProductVariants{Sizes: []string{"S", "M", "L"}}},
		2: {ID: 2, SKU: "PLA-002", Name: "Playera Básica", Price: 29900, Status: "active"},
		3: {ID: 3, SKU: "ARC-003", Name: "Abrigo Archivado", Price: 150000, Status: "archived"},
	}}
	orders := &memoryOrders{failNext: failOrders}
	return NewService(catalog, orders), orders
}

func TestQuote_UsesDatabasePriceNotClientPrice(t *testing.T) {
	svc, _ := testService(nil)

	// The DB says $85.00; a tampered client payload claiming $1.00 has no
	// field to even arrive through — CartItem carries no price.
	q, err := svc.Quote(context.Background(), []CartItem{
		{ProductID: 1, Quantity: 1, Size: "M"},
	}, ShippingStandard)
	require.NoError(t, err)

	assert.Equal(t, int64(8500), q.Lines[0].UnitPrice)
	assert.Equal(t, int64(8500), q.Subtotal)
}

func TestQuote_TotalsInvariant(t *testing.T) {
	svc, _ := testService(nil)

	q, err := svc.Quote(context.Background(), []CartItem{
		{ProductID: 1, Quantity: 2, Size: "S"},
		{ProductID: 2, Quantity: 1},
	}, ShippingExpress)
	require.NoError(t, err)

	assert.Equal(t, int64(2*8500+29900), q.Subtotal)
	assert.Equal(t, int64(19900), q.Shipping)
	assert.Equal(t, q.Subtotal*16/100, q.Tax)
	assert.Equal(t, q.Subtotal+q.Shipping+q.Tax, q.Total)
}

func TestQuote_FreeStandardShippingOverThreshold(t *testing.T) {
	svc, _ := testService(nil)

	q, err := svc.Quote(context.Background(), []CartItem{
		{ProductID: 2, Quantity: 4}, // 119,600 centavos
	}, ShippingStandard)
	require.NoError(t, err)
	assert.Zero(t, q.Shipping)
}

func TestQuote_InactiveProductFailsPerItem(t *testing.T) {
	svc, _ := testService(nil)

	_, err := svc.Quote(context.Background(), []CartItem{
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 1},  // archived
		{ProductID: 99, Quantity: 1}, // missing
	}, ShippingStandard)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Items, 2)
	assert.Equal(t, int64(3), verr.Items[0].ProductID)
	assert.Equal(t, int64(99), verr.Items[1].ProductID)
}

func TestQuote_VariantMustBeOffered(t *testing.T) {
	svc, _ := testService(nil)

	_, err := svc.Quote(context.Background(), []CartItem{
		{ProductID: 1, Quantity: 1, Size: "XXL"},
	}, ShippingStandard)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Items[0].Reason, "XXL")

	// size required when the product has sizes
	_, err = svc.Quote(context.Background(), []CartItem{
		{ProductID: 1, Quantity: 1},
	}, ShippingStandard)
	require.ErrorAs(t, err, &verr)
}

func TestQuote_EmptyCart(t *testing.T) {
	svc, _ := testService(nil)
	_, err := svc.Quote(context.Background(), nil, ShippingStandard)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestQuote_UnknownShippingMethod(t *testing.T) {
	svc, _ := testService(nil)
	_, err := svc.Quote(context.Background(), []CartItem{{ProductID: 2, Quantity: 1}}, "drone")
	assert.ErrorIs(t, err, ErrUnknownShipping)
}

func TestPlace_SnapshotsProductFields(t *testing.T) {
	svc, store := testService(nil)

	q, err := svc.Quote(context.Background(), []CartItem{
		{ProductID: 1, Quantity: 2, Size: "L"},
	}, ShippingStandard)
	require.NoError(t, err)

	order, err := svc.Place(context.Background(), PlaceInput{
		Quote:         q,
		CustomerID:    10,
		CustomerEmail: "ana@example.com",
		CustomerName:  "Ana López",
		Address:       models.ShippingAddress{Street: "Reforma 100", City: "CDMX", State: "CDMX", PostalCode: "06600"},
		Status:        models.OrderStatusPaid,
		PaymentRef:    "conekta:ord_2abc",
	})
	require.NoError(t, err)

	require.Len(t, store.orders, 1)
	require.Len(t, store.items[0], 1)

	item := store.items[0][0]
	assert.Equal(t, "Vestido Midi", item.ProductName)
	assert.Equal(t, "VES-001", item.ProductSKU)
	assert.Equal(t, "/img/vestido.jpg", item.ProductImage)
	assert.Equal(t, int64(8500), item.UnitPrice)
	assert.Equal(t, int64(17000), item.TotalPrice)
	require.NotNil(t, item.VariantSize)
	assert.Equal(t, "L", *item.VariantSize)

	assert.Equal(t, order.Subtotal+order.Shipping+order.Tax, order.Total)
	require.NotNil(t, order.Notes)
	assert.Equal(t, "conekta:ord_2abc", *order.Notes)
}

func TestPlace_FailedInsertPersistsNothing(t *testing.T) {
	svc, store := testService(errors.New("item insert failed"))

	q, err := svc.Quote(context.Background(), []CartItem{{ProductID: 2, Quantity: 1}}, ShippingStandard)
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), PlaceInput{
		Quote: q, CustomerID: 1, CustomerEmail: "a@b.c", CustomerName: "A",
		Status: models.OrderStatusPending,
	})
	require.Error(t, err)

	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
}

func TestPlace_RejectsNonInitialStatus(t *testing.T) {
	svc, _ := testService(nil)
	q, err := svc.Quote(context.Background(), []CartItem{{ProductID: 2, Quantity: 1}}, ShippingStandard)
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), PlaceInput{Quote: q, Status: models.OrderStatusShipped})
	assert.Error(t, err)
}

func TestPlace_KeepsOrderNumberGeneratedBeforeCharge(t *testing.T) {
	svc, store := testService(nil)
	q, err := svc.Quote(context.Background(), []CartItem{{ProductID: 2, Quantity: 1}}, ShippingStandard)
	require.NoError(t, err)

	order, err := svc.Place(context.Background(), PlaceInput{
		Quote: q, OrderNumber: "LUN-20260829-ABC123",
		CustomerID: 1, CustomerEmail: "a@b.c", CustomerName: "A",
		Status: models.OrderStatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, "LUN-20260829-ABC123", order.OrderNumber)
	assert.Equal(t, "LUN-20260829-ABC123", store.orders[0].OrderNumber)
}

func TestNewOrderNumber_Format(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	re := regexp.MustCompile(`^LUN-20260829-[A-Z0-9]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := NewOrderNumber(now)
		assert.Regexp(t, re, n)
		seen[n] = true
	}
	// random suffix should essentially never collide in 50 draws
	assert.Greater(t, len(seen), 45)
}
