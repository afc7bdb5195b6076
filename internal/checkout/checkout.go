// Package checkout validates carts against the catalog, computes totals and
// creates orders. The one rule everything here serves: the price charged is
// the one in the products table, never the one the client sent.
package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/lunaria-mx/lunaria-api/internal/models"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnknownShipping = errors.New("unknown shipping method")
)

// ItemError reports why a single cart line failed validation. Checkout aborts
// before any payment call when at least one line is bad.
type ItemError struct {
	ProductID int64  `json:"productId"`
	Reason    string `json:"reason"`
}

// ValidationError aggregates the per-item failures of a cart.
type ValidationError struct {
	Items []ItemError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d cart item(s) failed validation", len(e.Items))
}

// CartItem is one line as submitted by the client. Any price field the client
// may have sent is dropped at the transport layer and never reaches here.
type CartItem struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Line is a validated cart line with the database price attached.
type Line struct {
	Product    models.Product
	Quantity   int
	Size       string
	Color      string
	UnitPrice  int64
	TotalPrice int64
}

// Quote is a fully priced cart. Total = Subtotal + Shipping + Tax always
// holds by construction.
type Quote struct {
	Lines    []Line
	Subtotal int64
	Shipping int64
	Tax      int64
	Total    int64
}

// Shipping methods and flat rates in centavos. Standard shipping is free
// above the threshold.
const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"

	standardRate          = 9900
	expressRate           = 19900
	freeShippingThreshold = 99900
)

// ivaRate is the Mexican IVA applied on top of catalog prices, in percent.
const ivaRate = 16

// Catalog is the product lookup the quote runs against. The Postgres
// implementation lives in this package; tests supply an in-memory one.
type Catalog interface {
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error)
}

// Orders persists an order and its items atomically: either the order row and
// every item row land, or nothing does.
type Orders interface {
	Create(ctx context.Context, order *models.Order, items []models.OrderItem) error
}

// Service wires the catalog and the order store.
type Service struct {
	catalog Catalog
	orders  Orders
}

func NewService(catalog Catalog, orders Orders) *Service {
	return &Service{catalog: catalog, orders: orders}
}

// ShippingRate returns the shipping cost for the method given the subtotal.
func ShippingRate(method string, subtotal int64) (int64, error) {
	switch method {
	case ShippingStandard:
		if subtotal >= freeShippingThreshold {
			return 0, nil
		}
		return standardRate, nil
	case ShippingExpress:
		return expressRate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownShipping, method)
	}
}

// Quote re-prices the cart from the database. Every product must exist, be
// 'active' and offer the requested variant; otherwise a ValidationError with
// one entry per bad line is returned and no payment call should happen.
func (s *Service) Quote(ctx context.Context, items []CartItem, shippingMethod string) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	var itemErrs []ItemError
	var lines []Line
	var subtotal int64

	for _, it := range items {
		if it.Quantity <= 0 {
			itemErrs = append(itemErrs, ItemError{ProductID: it.ProductID, Reason: "invalid quantity"})
			continue
		}

		p, ok := products[it.ProductID]
		if !ok {
			itemErrs = append(itemErrs, ItemError{ProductID: it.ProductID, Reason: "product no longer available"})
			continue
		}
		if p.Status != "active" {
			itemErrs = append(itemErrs, ItemError{ProductID: it.ProductID, Reason: "product is not available for purchase"})
			continue
		}
		if !p.Variants.HasSize(it.Size) {
			itemErrs = append(itemErrs, ItemError{ProductID: it.ProductID, Reason: fmt.Sprintf("size %q is not offered", it.Size)})
			continue
		}
		if !p.Variants.HasColor(it.Color) {
			itemErrs = append(itemErrs, ItemError{ProductID: it.ProductID, Reason: fmt.Sprintf("color %q is not offered", it.Color)})
			continue
		}

		// The price comes from the product row, never the client payload.
		line := Line{
			Product:    p,
			Quantity:   it.Quantity,
			Size:       it.Size,
			Color:      it.Color,
			UnitPrice:  p.Price,
			TotalPrice: p.Price * int64(it.Quantity),
		}
		subtotal += line.TotalPrice
		lines = append(lines, line)
	}

	if len(itemErrs) > 0 {
		return nil, &ValidationError{Items: itemErrs}
	}

	shipping, err := ShippingRate(shippingMethod, subtotal)
	if err != nil {
		return nil, err
	}
	tax := subtotal * ivaRate / 100

	return &Quote{
		Lines:    lines,
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}, nil
}

// PlaceInput carries everything needed to persist an order after the gateway
// has answered.
type PlaceInput struct {
	Quote         *Quote
	OrderNumber   string // generated before the charge so the provider sees it too
	CustomerID    int64
	CustomerEmail string
	CustomerName  string
	Address       models.ShippingAddress
	Status        string // pending or paid, from the gateway result
	PaymentRef    string // "<provider>:<payment id>", stored in notes
}

// Place builds the order snapshot from a quote and writes it atomically.
func (s *Service) Place(ctx context.Context, in PlaceInput) (*models.Order, error) {
	if in.Status != models.OrderStatusPending && in.Status != models.OrderStatusPaid {
		return nil, fmt.Errorf("orders can only be created as pending or paid, got %q", in.Status)
	}

	now := time.Now()
	orderNumber := in.OrderNumber
	if orderNumber == "" {
		orderNumber = NewOrderNumber(now)
	}
	order := &models.Order{
		OrderNumber:     orderNumber,
		CustomerID:      in.CustomerID,
		CustomerEmail:   in.CustomerEmail,
		CustomerName:    in.CustomerName,
		Status:          in.Status,
		Subtotal:        in.Quote.Subtotal,
		Shipping:        in.Quote.Shipping,
		Tax:             in.Quote.Tax,
		Total:           in.Quote.Total,
		ShippingAddress: in.Address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.PaymentRef != "" {
		order.Notes = &in.PaymentRef
	}

	items := make([]models.OrderItem, 0, len(in.Quote.Lines))
	for _, line := range in.Quote.Lines {
		item := models.OrderItem{
			ProductID:    line.Product.ID,
			ProductName:  line.Product.Name,
			ProductSKU:   line.Product.SKU,
			ProductImage: line.Product.MainImage,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			TotalPrice:   line.TotalPrice,
		}
		if line.Size != "" {
			s := line.Size
			item.VariantSize = &s
		}
		if line.Color != "" {
			c := line.Color
			item.VariantColor = &c
		}
		items = append(items, item)
	}

	if err := s.orders.Create(ctx, order, items); err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	order.Items = items
	return order, nil
}

const orderNumberAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ0123456789"

// NewOrderNumber generates a time-based order number like LUN-20260829-K7Q2MX.
func NewOrderNumber(t time.Time) string {
	b := make([]byte, 6)
	rand.Read(b)
	for i := range b {
		b[i] = orderNumberAlphabet[int(b[i])%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("LUN-%s-%s", t.Format("20060102"), string(b))
}
