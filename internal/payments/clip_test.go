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

func TestClip_ChargeCard_Approved(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pay_123",
			"status": "approved",
		})
	}))
	defer srv.Close()

	g := NewClipWithBaseURL("clip-key", srv.URL)
	res, err := g.Charge(context.Background(), ChargeRequest{
		Amount:        8500,
		Currency:      "MXN",
		Description:   "Pedido LUN-20260829-ABC123",
		Method:        MethodCard,
		Token:         "tok_abc",
		CustomerName:  "Ana López",
		CustomerEmail: "ana@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, res.Status)
	assert.Equal(t, "pay_123", res.ProviderPaymentID)
	assert.Equal(t, "Basic clip-key", gotAuth)
	// amount must be decimal pesos, derived from centavos
	assert.Equal(t, 85.0, gotBody["amount"])
	assert.Equal(t, "tok_abc", gotBody["payment_method"].(map[string]interface{})["token"])
}

func TestClip_ChargeCard_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pay_456",
			"status": "rejected",
			"status_detail": map[string]string{
				"code": "insufficient_funds",
			},
		})
	}))
	defer srv.Close()

	g := NewClipWithBaseURL("clip-key", srv.URL)
	res, err := g.Charge(context.Background(), ChargeRequest{Method: MethodCard, Amount: 100})
	require.NoError(t, err)

	assert.Equal(t, StatusDeclined, res.Status)
	assert.Equal(t, clipDeclineMessages["insufficient_funds"], res.DeclineReason)
}

func TestClip_ChargeCard_Pending3DS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pay_789",
			"status": "pending",
			"pending_action": map[string]string{
				"url": "https://3ds.payclip.com/challenge/789",
			},
		})
	}))
	defer srv.Close()

	g := NewClipWithBaseURL("clip-key", srv.URL)
	res, err := g.Charge(context.Background(), ChargeRequest{Method: MethodCard, Amount: 100})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, "https://3ds.payclip.com/challenge/789", res.RedirectURL)
}

func TestClip_HostedCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/checkout", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		redir := body["redirection_url"].(map[string]interface{})
		assert.Equal(t, "https://shop.example/gracias", redir["success"])

		json.NewEncoder(w).Encode(map[string]string{
			"payment_request_id":  "req_1",
			"payment_request_url": "https://checkout.payclip.com/req_1",
		})
	}))
	defer srv.Close()

	g := NewClipWithBaseURL("clip-key", srv.URL)
	res, err := g.Charge(context.Background(), ChargeRequest{
		Method:     MethodHosted,
		Amount:     19900,
		Currency:   "MXN",
		SuccessURL: "https://shop.example/gracias",
		ErrorURL:   "https://shop.example/error",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, "https://checkout.payclip.com/req_1", res.RedirectURL)
}

func TestClip_UnsupportedMethod(t *testing.T) {
	g := NewClip("clip-key")
	_, err := g.Charge(context.Background(), ChargeRequest{Method: MethodOXXO})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}
