package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lunaria-mx/lunaria-api/internal/checkout"
	"github.com/lunaria-mx/lunaria-api/internal/models"
	"github.com/lunaria-mx/lunaria-api/internal/payments"
)

type CheckoutAddressInput struct {
	Street     string `json:"street" binding:"required"`
	ExtNumber  string `json:"extNumber"`
	Colonia    string `json:"colonia"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
}

// CheckoutInput is the full multi-step form as submitted at the end of
// checkout. Note there is no price field anywhere in it: prices are read from
// the database, never from the client.
type CheckoutInput struct {
	Items          []checkout.CartItem `json:"items" binding:"required,min=1"`
	ShippingMethod string              `json:"shippingMethod" binding:"required"`

	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`

	Address CheckoutAddressInput `json:"address" binding:"required"`

	Provider     string `json:"provider" binding:"required,oneof=clip conekta mercadopago"`
	Method       string `json:"method" binding:"required,oneof=card oxxo spei hosted"`
	Token        string `json:"token"`
	Installments int    `json:"installments" binding:"omitempty,oneof=3 6 9 12"` // MSI plans

	// Hosted checkout redirect targets
	SuccessURL string `json:"successUrl"`
	ErrorURL   string `json:"errorUrl"`
}

// Checkout is the handler for POST /v1/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	// 1. --- Bind & Validate ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gateway, ok := h.Gateways[input.Provider]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment provider"})
		return
	}

	// 2. --- Re-price the cart from the database ---
	// Missing or non-active products abort here, before any payment call.
	quote, err := h.CheckoutSvc.Quote(c.Request.Context(), input.Items, input.ShippingMethod)
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Some items in your cart are no longer available",
				"items": verr.Items,
			})
		case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrUnknownShipping):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("checkout quote failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not validate your cart"})
		}
		return
	}

	// 3. --- Find or provision the customer ---
	customerID, err := h.findOrCreateCustomer(c, input)
	if err != nil {
		log.Printf("checkout customer provisioning failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not process your order"})
		return
	}

	// 4. --- Charge the provider ---
	chargeItems := make([]payments.LineItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		chargeItems = append(chargeItems, payments.LineItem{
			Name:      line.Product.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	// The order number is generated before the charge so providers can carry
	// it as their external reference; webhooks match on it later.
	orderNumber := checkout.NewOrderNumber(time.Now())

	result, err := gateway.Charge(c.Request.Context(), payments.ChargeRequest{
		OrderNumber:   orderNumber,
		Amount:        quote.Total,
		Currency:      "MXN",
		Description:   "Compra en Lunaria",
		Items:         chargeItems,
		Method:        input.Method,
		Token:         input.Token,
		Installments:  input.Installments,
		CustomerName:  input.Name,
		CustomerEmail: input.Email,
		CustomerPhone: input.Phone,
		SuccessURL:    input.SuccessURL,
		ErrorURL:      input.ErrorURL,
	})
	if err != nil {
		if errors.Is(err, payments.ErrUnsupportedMethod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "This payment method is not available with the selected provider"})
			return
		}
		log.Printf("checkout charge failed (%s): %v", gateway.Name(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "El proveedor de pagos no está disponible. Intenta de nuevo."})
		return
	}

	// 5. --- Declined: no order row is written ---
	if result.Status == payments.StatusDeclined {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": result.DeclineReason})
		return
	}

	// 6. --- Persist the order (paid or pending) ---
	status := models.OrderStatusPaid
	if result.Status == payments.StatusPending {
		status = models.OrderStatusPending
	}

	order, err := h.CheckoutSvc.Place(c.Request.Context(), checkout.PlaceInput{
		Quote:         quote,
		OrderNumber:   orderNumber,
		CustomerID:    customerID,
		CustomerEmail: input.Email,
		CustomerName:  input.Name,
		Address: models.ShippingAddress{
			Street:     input.Address.Street,
			ExtNumber:  input.Address.ExtNumber,
			Colonia:    input.Address.Colonia,
			City:       input.Address.City,
			State:      input.Address.State,
			PostalCode: input.Address.PostalCode,
			Phone:      input.Phone,
		},
		Status:     status,
		PaymentRef: gateway.Name() + ":" + result.ProviderPaymentID,
	})
	if err != nil {
		// The charge went through but the order row did not. There is no
		// reconciliation job; this is logged loudly for manual follow-up.
		log.Printf("ALERT: charge %s:%s succeeded but order creation failed: %v",
			gateway.Name(), result.ProviderPaymentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create order"})
		return
	}

	// 7. --- Respond with everything the status page needs ---
	c.JSON(http.StatusCreated, gin.H{
		"orderNumber":  order.OrderNumber,
		"status":       order.Status,
		"total":        order.Total,
		"subtotal":     order.Subtotal,
		"shipping":     order.Shipping,
		"tax":          order.Tax,
		"redirectUrl":  result.RedirectURL,
		"instructions": result.Instructions,
	})
}

// findOrCreateCustomer reuses the account matching the checkout email or
// provisions one without credentials (password_hash NULL).
func (h *Handlers) findOrCreateCustomer(c *gin.Context, input CheckoutInput) (int64, error) {
	query := `
		INSERT INTO customers
		(email, name, phone, street, ext_number, colonia, city, state, postal_code, created_at, updated_at)
		VALUES (LOWER($1), $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id`

	var customerID int64
	err := h.DB.QueryRowContext(c.Request.Context(), query,
		input.Email, input.Name, input.Phone,
		input.Address.Street, input.Address.ExtNumber, input.Address.Colonia,
		input.Address.City, input.Address.State, input.Address.PostalCode,
	).Scan(&customerID)
	return customerID, err
}

// ListPaymentMethods is the handler for GET /v1/payment-methods
// It proxies Mercado Pago's catalog so the checkout page can offer only
// methods enabled on the account.
func (h *Handlers) ListPaymentMethods(c *gin.Context) {
	if h.MercadoPago == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Mercado Pago is not configured"})
		return
	}

	methods, err := h.MercadoPago.ListPaymentMethods(c.Request.Context())
	if err != nil {
		log.Printf("listing payment methods failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment methods are temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentMethods": methods})
}
