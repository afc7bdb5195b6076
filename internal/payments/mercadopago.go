package payments

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const defaultMercadoPagoBaseURL = "https://api.mercadopago.com"

// Mercado Pago status_detail codes for rejected payments.
var mercadoPagoDeclineMessages = map[string]string{
	"cc_rejected_insufficient_amount":      "Fondos insuficientes en la tarjeta.",
	"cc_rejected_bad_filled_card_number":   "El número de tarjeta es inválido.",
	"cc_rejected_bad_filled_date":          "La fecha de vencimiento es inválida.",
	"cc_rejected_bad_filled_security_code": "El código de seguridad es inválido.",
	"cc_rejected_call_for_authorize":       "Debes autorizar el pago con tu banco e intentar de nuevo.",
	"cc_rejected_card_disabled":            "La tarjeta está deshabilitada. Contacta a tu banco.",
	"cc_rejected_duplicated_payment":       "Ya realizaste un pago por este monto. Si necesitas volver a pagar usa otra tarjeta.",
	"cc_rejected_high_risk":                "El pago fue rechazado por seguridad. Intenta con otro método.",
	"cc_rejected_other_reason":             "La tarjeta fue rechazada por el banco emisor.",
}

// MercadoPago integrates the Mercado Pago payments API with Bearer auth and
// a fresh X-Idempotency-Key per call. Card charges can come back in_process
// (manual review); those orders stay pending until the webhook settles them.
type MercadoPago struct {
	client      *http.Client
	baseURL     string
	accessToken string

	// newIdempotencyKey is swappable in tests
	newIdempotencyKey func() string
}

func NewMercadoPago(accessToken string) *MercadoPago {
	return &MercadoPago{
		client:            &http.Client{Timeout: 30 * time.Second},
		baseURL:           defaultMercadoPagoBaseURL,
		accessToken:       accessToken,
		newIdempotencyKey: uuid.NewString,
	}
}

// NewMercadoPagoWithBaseURL is used by tests to point the adapter at a local server.
func NewMercadoPagoWithBaseURL(accessToken, baseURL string) *MercadoPago {
	g := NewMercadoPago(accessToken)
	g.baseURL = baseURL
	return g
}

func (g *MercadoPago) Name() string { return "mercadopago" }

func (g *MercadoPago) headers() map[string]string {
	return map[string]string{
		"Authorization":     "Bearer " + g.accessToken,
		"X-Idempotency-Key": g.newIdempotencyKey(),
	}
}

type mpPaymentPayload struct {
	TransactionAmount float64           `json:"transaction_amount"`
	Token             string            `json:"token"`
	Description       string            `json:"description"`
	Installments      int               `json:"installments"`
	PaymentMethodID   string            `json:"payment_method_id,omitempty"`
	ExternalReference string            `json:"external_reference"`
	Payer             map[string]string `json:"payer"`
}

type mpPaymentResponse struct {
	ID                 int64   `json:"id"`
	Status             string  `json:"status"`
	StatusDetail       string  `json:"status_detail"`
	ExternalReference  string  `json:"external_reference"`
	TransactionAmount  float64 `json:"transaction_amount"`
	PointOfInteraction struct {
		TransactionData struct {
			TicketURL string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// PaymentMethod is one entry of GET /v1/payment_methods, used by the checkout
// page to offer only the methods enabled on the account.
type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PaymentType string `json:"payment_type_id"`
	Status      string `json:"status"`
	Thumbnail   string `json:"thumbnail"`
}

// Charge posts a card payment. Only MethodCard is available through this
// adapter; OXXO/SPEI buyers go through Conekta.
func (g *MercadoPago) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Method != MethodCard {
		return nil, fmt.Errorf("mercadopago: %w: %s", ErrUnsupportedMethod, req.Method)
	}

	installments := req.Installments
	if installments < 1 {
		installments = 1
	}

	payload := mpPaymentPayload{
		TransactionAmount: centavosToAmount(req.Amount),
		Token:             req.Token,
		Description:       req.Description,
		Installments:      installments,
		ExternalReference: req.OrderNumber,
		Payer:             map[string]string{"email": req.CustomerEmail},
	}

	var resp mpPaymentResponse
	code, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/v1/payments", g.headers(), payload, &resp)
	if err != nil {
		return nil, err
	}

	return g.mapPayment(code, resp)
}

// GetPayment fetches a payment by ID. The webhook handler uses it: Mercado
// Pago notifications carry only the payment ID, not its status.
func (g *MercadoPago) GetPayment(ctx context.Context, paymentID string) (*ChargeResult, string, error) {
	url := g.baseURL + "/v1/payments/" + paymentID

	var resp mpPaymentResponse
	code, err := doJSON(ctx, g.client, http.MethodGet, url, g.headers(), nil, &resp)
	if err != nil {
		return nil, "", err
	}

	result, err := g.mapPayment(code, resp)
	if err != nil {
		return nil, "", err
	}
	return result, resp.ExternalReference, nil
}

// ListPaymentMethods returns the methods enabled on the account.
func (g *MercadoPago) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	var methods []PaymentMethod
	code, err := doJSON(ctx, g.client, http.MethodGet, g.baseURL+"/v1/payment_methods", g.headers(), nil, &methods)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, &apiError{Provider: "mercadopago", StatusCode: code, Body: "listing payment methods"}
	}
	return methods, nil
}

func (g *MercadoPago) mapPayment(code int, resp mpPaymentResponse) (*ChargeResult, error) {
	id := strconv.FormatInt(resp.ID, 10)

	switch resp.Status {
	case "approved":
		return &ChargeResult{Status: StatusPaid, ProviderPaymentID: id}, nil
	case "in_process", "pending", "authorized":
		return &ChargeResult{
			Status:            StatusPending,
			ProviderPaymentID: id,
			RedirectURL:       resp.PointOfInteraction.TransactionData.TicketURL,
		}, nil
	case "rejected", "cancelled":
		return &ChargeResult{
			Status:            StatusDeclined,
			ProviderPaymentID: id,
			DeclineReason:     translateDecline(mercadoPagoDeclineMessages, resp.StatusDetail),
		}, nil
	}

	return nil, &apiError{Provider: "mercadopago", StatusCode: code, Body: resp.Status}
}
