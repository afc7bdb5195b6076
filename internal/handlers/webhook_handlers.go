package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lunaria-mx/lunaria-api/internal/models"
	"github.com/lunaria-mx/lunaria-api/internal/payments"
)

// Webhook handlers confirm or cancel orders when a provider settles a
// payment after checkout (3DS, OXXO, SPEI, hosted links). Transitions only
// apply to orders still in the pending state, so redelivered events are
// no-ops and a webhook can never un-pay or re-open a settled order.

// settleOrder moves a pending order to its terminal payment status.
// The order is located by the payment reference stored in notes at
// checkout time ("provider:paymentID"), falling back to the order number
// the provider carried as its external reference.
func (h *Handlers) settleOrder(paymentRef, orderNumber, newStatus string) {
	result, err := h.DB.Exec(`
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND (notes = $3 OR order_number = $4)`,
		newStatus, models.OrderStatusPending, paymentRef, orderNumber,
	)
	if err != nil {
		log.Printf("webhook: failed to settle order %q / %q: %v", paymentRef, orderNumber, err)
		return
	}
	if n, _ := result.RowsAffected(); n > 0 {
		log.Printf("webhook: order %q / %q -> %s", paymentRef, orderNumber, newStatus)
	}
}

// ClipWebhook is the handler for POST /v1/webhooks/clip
func (h *Handlers) ClipWebhook(c *gin.Context) {
	var event struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&event); err != nil || event.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload"})
		return
	}

	switch event.Status {
	case "approved", "paid":
		h.settleOrder("clip:"+event.ID, "", models.OrderStatusPaid)
	case "rejected", "cancelled", "expired":
		h.settleOrder("clip:"+event.ID, "", models.OrderStatusCancelled)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ConektaWebhook is the handler for POST /v1/webhooks/conekta
func (h *Handlers) ConektaWebhook(c *gin.Context) {
	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID            string `json:"id"`
				PaymentStatus string `json:"payment_status"`
				Metadata      struct {
					OrderNumber string `json:"order_number"`
				} `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload"})
		return
	}

	obj := event.Data.Object
	switch event.Type {
	case "order.paid":
		h.settleOrder("conekta:"+obj.ID, obj.Metadata.OrderNumber, models.OrderStatusPaid)
	case "order.expired", "order.canceled", "order.declined":
		h.settleOrder("conekta:"+obj.ID, obj.Metadata.OrderNumber, models.OrderStatusCancelled)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// MercadoPagoWebhook is the handler for POST /v1/webhooks/mercadopago
// Mercado Pago only sends the payment id; the current status has to be
// fetched back from their API.
func (h *Handlers) MercadoPagoWebhook(c *gin.Context) {
	var event struct {
		Type string `json:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload"})
		return
	}
	if event.Type != "payment" || event.Data.ID == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if h.MercadoPago == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Mercado Pago is not configured"})
		return
	}

	result, orderNumber, err := h.MercadoPago.GetPayment(c.Request.Context(), event.Data.ID)
	if err != nil {
		// 500 so Mercado Pago retries the delivery later.
		log.Printf("webhook: mercadopago payment lookup %s failed: %v", event.Data.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment lookup failed"})
		return
	}

	switch result.Status {
	case payments.StatusPaid:
		h.settleOrder("mercadopago:"+event.Data.ID, orderNumber, models.OrderStatusPaid)
	case payments.StatusDeclined:
		h.settleOrder("mercadopago:"+event.Data.ID, orderNumber, models.OrderStatusCancelled)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
