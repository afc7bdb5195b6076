package payments

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultConektaBaseURL = "https://api.conekta.io"
	conektaAPIVersion     = "application/vnd.conekta-v2.1.0+json"
)

var conektaDeclineMessages = map[string]string{
	"insufficient_funds":   "Fondos insuficientes en la tarjeta.",
	"card_declined":        "La tarjeta fue rechazada por el banco emisor.",
	"expired_card":         "La tarjeta ha expirado.",
	"invalid_number":       "El número de tarjeta es inválido.",
	"invalid_cvc":          "El código de seguridad es inválido.",
	"suspected_fraud":      "El pago fue rechazado por seguridad. Intenta con otra tarjeta.",
	"processing_error":     "Ocurrió un error al procesar el pago. Intenta de nuevo.",
	"insufficient_balance": "Fondos insuficientes en la tarjeta.",
}

// Conekta integrates the Conekta orders API. Card charges settle
// synchronously; oxxo_cash and spei charges come back pending with the
// voucher reference or receiving CLABE for the buyer.
type Conekta struct {
	client     *http.Client
	baseURL    string
	privateKey string
}

func NewConekta(privateKey string) *Conekta {
	return &Conekta{
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultConektaBaseURL,
		privateKey: privateKey,
	}
}

// NewConektaWithBaseURL is used by tests to point the adapter at a local server.
func NewConektaWithBaseURL(privateKey, baseURL string) *Conekta {
	g := NewConekta(privateKey)
	g.baseURL = baseURL
	return g
}

func (g *Conekta) Name() string { return "conekta" }

func (g *Conekta) headers() map[string]string {
	basic := base64.StdEncoding.EncodeToString([]byte(g.privateKey + ":"))
	return map[string]string{
		"Authorization": "Basic " + basic,
		"Accept":        conektaAPIVersion,
	}
}

type conektaLineItem struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // centavos
	Quantity  int    `json:"quantity"`
}

type conektaOrderPayload struct {
	Currency     string            `json:"currency"`
	CustomerInfo map[string]string `json:"customer_info"`
	LineItems    []conektaLineItem `json:"line_items"`
	Charges      []conektaCharge   `json:"charges"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type conektaCharge struct {
	PaymentMethod map[string]interface{} `json:"payment_method"`
}

type conektaOrderResponse struct {
	ID            string `json:"id"`
	PaymentStatus string `json:"payment_status"`
	Charges       struct {
		Data []struct {
			ID            string `json:"id"`
			Status        string `json:"status"`
			FailureCode   string `json:"failure_code"`
			PaymentMethod struct {
				Type          string `json:"type"`
				Reference     string `json:"reference"`      // OXXO voucher
				Clabe         string `json:"clabe"`          // SPEI receiving account
				ReceivingBank string `json:"receiving_bank"` // SPEI
				ExpiresAt     int64  `json:"expires_at"`     // unix seconds
			} `json:"payment_method"`
		} `json:"data"`
	} `json:"charges"`
	Details struct {
		Message string `json:"message"`
	} `json:"details"`
}

type conektaTokenResponse struct {
	ID string `json:"id"`
}

// CreateToken exchanges raw card data for a single-use token via POST /tokens.
// The storefront tokenizes in the browser; this exists for server-side tools
// and tests.
func (g *Conekta) CreateToken(ctx context.Context, card map[string]interface{}) (string, error) {
	var resp conektaTokenResponse
	payload := map[string]interface{}{"card": card}
	code, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/tokens", g.headers(), payload, &resp)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &apiError{Provider: "conekta", StatusCode: code, Body: "missing token id"}
	}
	return resp.ID, nil
}

// Charge creates a Conekta order with a single charge in the requested method.
func (g *Conekta) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	method, err := g.paymentMethod(req)
	if err != nil {
		return nil, err
	}

	items := make([]conektaLineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, conektaLineItem{Name: it.Name, UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}

	payload := conektaOrderPayload{
		Currency: req.Currency,
		CustomerInfo: map[string]string{
			"name":  req.CustomerName,
			"email": req.CustomerEmail,
			"phone": req.CustomerPhone,
		},
		LineItems: items,
		Charges:   []conektaCharge{{PaymentMethod: method}},
		Metadata:  map[string]string{"order_number": req.OrderNumber},
	}

	var resp conektaOrderResponse
	code, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/orders", g.headers(), payload, &resp)
	if err != nil {
		return nil, err
	}

	var failureCode string
	if len(resp.Charges.Data) > 0 {
		failureCode = resp.Charges.Data[0].FailureCode
	}

	switch resp.PaymentStatus {
	case "paid":
		return &ChargeResult{Status: StatusPaid, ProviderPaymentID: resp.ID}, nil
	case "pending_payment":
		return &ChargeResult{
			Status:            StatusPending,
			ProviderPaymentID: resp.ID,
			Instructions:      g.instructions(req, resp),
		}, nil
	case "declined", "expired":
		return &ChargeResult{
			Status:            StatusDeclined,
			ProviderPaymentID: resp.ID,
			DeclineReason:     translateDecline(conektaDeclineMessages, failureCode),
		}, nil
	}

	return nil, &apiError{Provider: "conekta", StatusCode: code, Body: resp.Details.Message}
}

func (g *Conekta) paymentMethod(req ChargeRequest) (map[string]interface{}, error) {
	switch req.Method {
	case MethodCard:
		m := map[string]interface{}{"type": "card", "token_id": req.Token}
		if req.Installments > 1 {
			m["monthly_installments"] = req.Installments // MSI
		}
		return m, nil
	case MethodOXXO:
		return map[string]interface{}{"type": "oxxo_cash"}, nil
	case MethodSPEI:
		return map[string]interface{}{"type": "spei"}, nil
	default:
		return nil, fmt.Errorf("conekta: %w: %s", ErrUnsupportedMethod, req.Method)
	}
}

func (g *Conekta) instructions(req ChargeRequest, resp conektaOrderResponse) *Instructions {
	if len(resp.Charges.Data) == 0 {
		return nil
	}
	pm := resp.Charges.Data[0].PaymentMethod

	ins := &Instructions{AmountDue: req.Amount}
	if pm.ExpiresAt > 0 {
		t := time.Unix(pm.ExpiresAt, 0)
		ins.ExpiresAt = &t
	}

	switch pm.Type {
	case "oxxo", "oxxo_cash":
		ins.Type = "oxxo"
		ins.Reference = pm.Reference
	case "spei":
		ins.Type = "spei"
		ins.Clabe = pm.Clabe
		ins.Bank = pm.ReceivingBank
	default:
		return nil
	}
	return ins
}
