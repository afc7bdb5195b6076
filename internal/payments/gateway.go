// Package payments wraps the three payment providers (Clip, Conekta,
// Mercado Pago) behind one Gateway interface. Each adapter builds the
// provider-specific payload, posts it, and maps the provider's status string
// onto the internal paid/pending/declined trichotomy.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Status is the internal payment outcome every provider response collapses to.
type Status string

const (
	StatusPaid     Status = "paid"     // charge captured, order becomes 'paid'
	StatusPending  Status = "pending"  // 3DS redirect or offline instructions, order becomes 'pending'
	StatusDeclined Status = "declined" // no order row is written
)

var (
	// ErrUnsupportedMethod is returned when a gateway is asked for a payment
	// method it does not offer (e.g. OXXO through Clip).
	ErrUnsupportedMethod = errors.New("payment method not supported by this gateway")
)

// Payment methods accepted at checkout.
const (
	MethodCard   = "card"
	MethodOXXO   = "oxxo"
	MethodSPEI   = "spei"
	MethodHosted = "hosted"
)

// LineItem is the minimal line description some providers want in the payload.
// UnitPrice is in centavos.
type LineItem struct {
	Name      string
	UnitPrice int64
	Quantity  int
}

// ChargeRequest carries everything an adapter needs to attempt a charge.
// Amount is in centavos; adapters convert to whatever unit their provider uses.
type ChargeRequest struct {
	OrderNumber string
	Amount      int64
	Currency    string
	Description string
	Items       []LineItem

	Method       string
	Token        string // card token from the provider's browser tokenizer
	Installments int    // MSI plan; 0 or 1 means a single charge

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	// Hosted-checkout redirect targets (Clip)
	SuccessURL string
	ErrorURL   string
}

// Instructions holds offline payment data surfaced to the buyer for
// pending OXXO and SPEI charges.
type Instructions struct {
	Type      string     `json:"type"` // oxxo or spei
	Reference string     `json:"reference,omitempty"`
	Clabe     string     `json:"clabe,omitempty"`
	Bank      string     `json:"bank,omitempty"`
	AmountDue int64      `json:"amountDue"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ChargeResult is the normalized outcome of a charge attempt.
type ChargeResult struct {
	Status            Status
	ProviderPaymentID string
	RedirectURL       string // 3DS or hosted-checkout URL, only for pending
	Instructions      *Instructions
	DeclineReason     string // translated, user-facing; only for declined
}

// Gateway is implemented once per provider.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// apiError is returned when a provider answers with a non-2xx status that is
// not an ordinary card decline.
type apiError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// doJSON posts (or gets, when body is nil and method says so) JSON to a
// provider endpoint and decodes the response into out. Non-2xx responses are
// still decoded when possible, because declines arrive as 4xx bodies on some
// providers; the raw status code is returned for the caller to branch on.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding provider response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// centavosToAmount converts integer centavos into the decimal major-unit
// amount Clip and Mercado Pago expect.
func centavosToAmount(cents int64) float64 {
	return float64(cents) / 100
}
