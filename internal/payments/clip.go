package payments

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const defaultClipBaseURL = "https://api.payclip.com"

// Clip decline codes to es-MX messages shown to the buyer.
var clipDeclineMessages = map[string]string{
	"insufficient_funds": "Fondos insuficientes en la tarjeta.",
	"card_declined":      "La tarjeta fue rechazada por el banco emisor.",
	"expired_card":       "La tarjeta ha expirado.",
	"invalid_card":       "Los datos de la tarjeta son inválidos.",
	"suspected_fraud":    "El pago fue rechazado por seguridad. Intenta con otra tarjeta.",
}

// Clip integrates the Clip payments API: direct card charges via
// POST /payments and hosted checkout links via POST /v2/checkout.
type Clip struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClip builds a Clip gateway. apiKey is the pre-encoded Basic credential
// from the Clip dashboard.
func NewClip(apiKey string) *Clip {
	return &Clip{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultClipBaseURL,
		apiKey:  apiKey,
	}
}

// NewClipWithBaseURL is used by tests to point the adapter at a local server.
func NewClipWithBaseURL(apiKey, baseURL string) *Clip {
	g := NewClip(apiKey)
	g.baseURL = baseURL
	return g
}

func (g *Clip) Name() string { return "clip" }

func (g *Clip) headers() map[string]string {
	return map[string]string{"Authorization": "Basic " + g.apiKey}
}

type clipChargePayload struct {
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description"`
	PaymentMethod map[string]string `json:"payment_method"`
	Customer      map[string]string `json:"customer"`
}

type clipChargeResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	StatusDetail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"status_detail"`
	PendingAction struct {
		URL string `json:"url"` // 3DS challenge
	} `json:"pending_action"`
}

type clipCheckoutPayload struct {
	Amount              float64           `json:"amount"`
	Currency            string            `json:"currency"`
	PurchaseDescription string            `json:"purchase_description"`
	RedirectionURL      map[string]string `json:"redirection_url"`
}

type clipCheckoutResponse struct {
	PaymentRequestID  string `json:"payment_request_id"`
	PaymentRequestURL string `json:"payment_request_url"`
}

// Charge performs a card charge or creates a hosted checkout link.
func (g *Clip) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	switch req.Method {
	case MethodCard:
		return g.chargeCard(ctx, req)
	case MethodHosted:
		return g.createCheckoutLink(ctx, req)
	default:
		return nil, fmt.Errorf("clip: %w: %s", ErrUnsupportedMethod, req.Method)
	}
}

func (g *Clip) chargeCard(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	payload := clipChargePayload{
		Amount:        centavosToAmount(req.Amount),
		Currency:      req.Currency,
		Description:   req.Description,
		PaymentMethod: map[string]string{"token": req.Token},
		Customer: map[string]string{
			"name":  req.CustomerName,
			"email": req.CustomerEmail,
			"phone": req.CustomerPhone,
		},
	}

	var resp clipChargeResponse
	code, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/payments", g.headers(), payload, &resp)
	if err != nil {
		return nil, err
	}

	switch resp.Status {
	case "approved", "paid":
		return &ChargeResult{Status: StatusPaid, ProviderPaymentID: resp.ID}, nil
	case "pending":
		return &ChargeResult{
			Status:            StatusPending,
			ProviderPaymentID: resp.ID,
			RedirectURL:       resp.PendingAction.URL,
		}, nil
	case "rejected", "cancelled":
		return &ChargeResult{
			Status:            StatusDeclined,
			ProviderPaymentID: resp.ID,
			DeclineReason:     translateDecline(clipDeclineMessages, resp.StatusDetail.Code),
		}, nil
	}

	return nil, &apiError{Provider: "clip", StatusCode: code, Body: resp.Status}
}

func (g *Clip) createCheckoutLink(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	payload := clipCheckoutPayload{
		Amount:              centavosToAmount(req.Amount),
		Currency:            req.Currency,
		PurchaseDescription: req.Description,
		RedirectionURL: map[string]string{
			"success": req.SuccessURL,
			"error":   req.ErrorURL,
			"default": req.SuccessURL,
		},
	}

	var resp clipCheckoutResponse
	code, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/v2/checkout", g.headers(), payload, &resp)
	if err != nil {
		return nil, err
	}
	if resp.PaymentRequestURL == "" {
		return nil, &apiError{Provider: "clip", StatusCode: code, Body: "missing payment_request_url"}
	}

	// A hosted link is always pending: the buyer pays on Clip's page and the
	// webhook settles the order later.
	return &ChargeResult{
		Status:            StatusPending,
		ProviderPaymentID: resp.PaymentRequestID,
		RedirectURL:       resp.PaymentRequestURL,
	}, nil
}

// translateDecline looks up a provider decline code, falling back to a
// generic message so the buyer never sees a raw code.
func translateDecline(table map[string]string, code string) string {
	if msg, ok := table[code]; ok {
		return msg
	}
	return "El pago fue rechazado. Verifica los datos de tu tarjeta o intenta con otro método."
}
