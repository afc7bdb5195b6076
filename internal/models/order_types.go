package models

import "time"

// Order statuses. An order is created as 'pending' or 'paid' depending on the
// gateway result; the rest are set by webhooks or admin actions.
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusConfirmed,
		OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// ShippingAddress is the JSON snapshot stored on the order. The customer row
// may change later; the order keeps what was entered at checkout.
type ShippingAddress struct {
	Street     string `json:"street"`
	ExtNumber  string `json:"extNumber,omitempty"`
	Colonia    string `json:"colonia,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone,omitempty"`
}

// Order is the model for the 'orders' table.
// All amounts are integer centavos. Invariant at creation time:
// Total = Subtotal + Shipping + Tax.
type Order struct {
	ID            int64  `json:"id" db:"id"`
	OrderNumber   string `json:"orderNumber" db:"order_number"`
	CustomerID    int64  `json:"customerId" db:"customer_id"`
	CustomerEmail string `json:"customerEmail" db:"customer_email"`
	CustomerName  string `json:"customerName" db:"customer_name"`
	Status        string `json:"status" db:"status"`

	Subtotal int64 `json:"subtotal" db:"subtotal"`
	Shipping int64 `json:"shipping" db:"shipping"`
	Tax      int64 `json:"tax" db:"tax"`
	Total    int64 `json:"total" db:"total"`

	ShippingAddress ShippingAddress `json:"shippingAddress" db:"-"` // JSON column

	// Free-text column; also carries the provider payment reference,
	// e.g. "mercadopago:123456789".
	Notes *string `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Populated by detail queries
	Items []OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem is the model for the 'order_items' table. Product name, SKU, image
// and unit price are denormalized at purchase time and never mutated afterward.
type OrderItem struct {
	ID           int64   `json:"id" db:"id"`
	OrderID      int64   `json:"orderId" db:"order_id"`
	ProductID    int64   `json:"productId" db:"product_id"`
	ProductName  string  `json:"productName" db:"product_name"`
	ProductSKU   string  `json:"productSku" db:"product_sku"`
	ProductImage string  `json:"productImage" db:"product_image"`
	Quantity     int     `json:"quantity" db:"quantity"`
	UnitPrice    int64   `json:"unitPrice" db:"unit_price"`
	TotalPrice   int64   `json:"totalPrice" db:"total_price"`
	VariantSize  *string `json:"variantSize,omitempty" db:"variant_size"`
	VariantColor *string `json:"variantColor,omitempty" db:"variant_color"`
}
