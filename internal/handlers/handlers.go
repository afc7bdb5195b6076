package handlers

import (
	"database/sql"
	"strings"

	"github.com/lunaria-mx/lunaria-api/internal/ai"
	"github.com/lunaria-mx/lunaria-api/internal/checkout"
	"github.com/lunaria-mx/lunaria-api/internal/payments"
)

// isDuplicateKey reports whether err is a Postgres unique-constraint
// violation. Inserts racing on the same natural key (customer email, admin
// email, product sku) branch on it to answer 409 instead of 500.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}

// Handlers holds all dependencies for the HTTP handlers.
type Handlers struct {
	DB         *sql.DB
	DBReadOnly *sql.DB

	CheckoutSvc *checkout.Service

	// Gateways keyed by provider name (clip, conekta, mercadopago).
	Gateways map[string]payments.Gateway

	// Kept concrete next to the Gateways map: the webhook and payment-method
	// endpoints use Mercado Pago calls that are not part of Gateway. Nil when
	// MP_ACCESS_TOKEN is not configured.
	MercadoPago *payments.MercadoPago

	// Assistant is nil when GEMINI_API_KEY is not configured.
	Assistant *ai.Assistant
}
