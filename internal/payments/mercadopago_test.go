package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMercadoPago(t *testing.T, handler http.HandlerFunc) (*MercadoPago, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewMercadoPagoWithBaseURL("TEST-token", srv.URL)
	g.newIdempotencyKey = func() string { return "fixed-idem-key" }
	return g, srv
}

func TestMercadoPago_Charge_Approved(t *testing.T) {
	var gotAuth, gotIdem string
	var gotBody map[string]interface{}

	g, _ := newTestMercadoPago(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotIdem = r.Header.Get("X-Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     123456789,
			"status": "approved",
		})
	})

	res, err := g.Charge(context.Background(), ChargeRequest{
		OrderNumber:   "LUN-20260829-ABC123",
		Amount:        8500,
		Method:        MethodCard,
		Token:         "card_tok",
		CustomerEmail: "ana@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, res.Status)
	assert.Equal(t, "123456789", res.ProviderPaymentID)
	assert.Equal(t, "Bearer TEST-token", gotAuth)
	assert.Equal(t, "fixed-idem-key", gotIdem)
	assert.Equal(t, 85.0, gotBody["transaction_amount"])
	assert.Equal(t, "LUN-20260829-ABC123", gotBody["external_reference"])
	assert.Equal(t, float64(1), gotBody["installments"]) // defaults to single charge
}

func TestMercadoPago_Charge_InProcess(t *testing.T) {
	g, _ := newTestMercadoPago(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     55,
			"status": "in_process",
		})
	})

	res, err := g.Charge(context.Background(), ChargeRequest{Method: MethodCard, Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
}

func TestMercadoPago_Charge_Rejected(t *testing.T) {
	g, _ := newTestMercadoPago(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            66,
			"status":        "rejected",
			"status_detail": "cc_rejected_call_for_authorize",
		})
	})

	res, err := g.Charge(context.Background(), ChargeRequest{Method: MethodCard, Amount: 100})
	require.NoError(t, err)

	assert.Equal(t, StatusDeclined, res.Status)
	assert.Equal(t, mercadoPagoDeclineMessages["cc_rejected_call_for_authorize"], res.DeclineReason)
}

func TestMercadoPago_Charge_UnknownDeclineCode(t *testing.T) {
	g, _ := newTestMercadoPago(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            67,
			"status":        "rejected",
			"status_detail": "cc_rejected_some_future_code",
		})
	})

	res, err := g.Charge(context.Background(), ChargeRequest{Method: MethodCard, Amount: 100})
	require.NoError(t, err)

	assert.Equal(t, StatusDeclined, res.Status)
	assert.NotEmpty(t, res.DeclineReason) // generic fallback, never a raw code
}

func TestMercadoPago_GetPayment(t *testing.T) {
	g, _ := newTestMercadoPago(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payments/123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 123,
			"status":             "approved",
			"external_reference": "LUN-20260829-XYZ999",
		})
	})

	res, orderNumber, err := g.GetPayment(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, res.Status)
	assert.Equal(t, "LUN-20260829-XYZ999", orderNumber)
}

func TestMercadoPago_ListPaymentMethods(t *testing.T) {
	g, _ := newTestMercadoPago(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_methods", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]string{
			{"id": "visa", "name": "Visa", "payment_type_id": "credit_card", "status": "active"},
			{"id": "oxxo", "name": "OXXO", "payment_type_id": "ticket", "status": "active"},
		})
	})

	methods, err := g.ListPaymentMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "visa", methods[0].ID)
}

func TestMercadoPago_Charge_UnsupportedMethod(t *testing.T) {
	g := NewMercadoPago("TEST-token")
	_, err := g.Charge(context.Background(), ChargeRequest{Method: MethodSPEI})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}
