package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConekta_ChargeCard_Paid(t *testing.T) {
	var gotAuth, gotAccept string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "ord_2abc",
			"payment_status": "paid",
			"charges": map[string]interface{}{
				"data": []map[string]interface{}{{"id": "chg_1", "status": "paid"}},
			},
		})
	}))
	defer srv.Close()

	g := NewConektaWithBaseURL("key_secret", srv.URL)
	res, err := g.Charge(context.Background(), ChargeRequest{
		OrderNumber:   "LUN-20260829-ABC123",
		Amount:        8500,
		Currency:      "MXN",
		Method:        MethodCard,
		Token:         "tok_test",
		Installments:  3,
		CustomerName:  "Ana López",
		CustomerEmail: "ana@example.com",
		Items:         []LineItem{{Name: "Vestido Midi", UnitPrice: 8500, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, res.Status)
	assert.Equal(t, "ord_2abc", res.ProviderPaymentID)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("key_secret:"))
	assert.Equal(t, wantAuth, gotAuth)
	assert.Equal(t, conektaAPIVersion, gotAccept)

	// Conekta wants centavos, not pesos
	items := gotBody["line_items"].([]interface{})
	assert.Equal(t, float64(8500), items[0].(map[string]interface{})["unit_price"])

	charge := gotBody["charges"].([]interface{})[0].(map[string]interface{})
	pm := charge["payment_method"].(map[string]interface{})
	assert.Equal(t, "card", pm["type"])
	assert.Equal(t, "tok_test", pm["token_id"])
	assert.Equal(t, float64(3), pm["monthly_installments"]) // MSI
}

func TestConekta_OXXO_Pending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		pm := body["charges"].([]interface{})[0].(map[string]interface{})["payment_method"].(map[string]interface{})
		assert.Equal(t, "oxxo_cash", pm["type"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "ord_oxxo",
			"payment_status": "pending_payment",
			"charges": map[string]interface{}{
				"data": []map[string]interface{}{{
					"id":     "chg_2",
					"status": "pending_payment",
					"payment_method": map[string]interface{}{
						"type":       "oxxo",
						"reference":  "93000262680107",
						"expires_at": 1756684800,
					},
				}},
			},
		})
	}))
	defer srv.Close()

	g := NewConektaWithBaseURL("key_secret", srv.URL)
	res, err := g.Charge(context.Background(), ChargeRequest{Method: MethodOXXO, Amount: 45900, Currency: "MXN"})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, res.Status)
	require.NotNil(t, res.Instructions)
	assert.Equal(t, "oxxo", res.Instructions.Type)
	assert.Equal(t, "93000262680107", res.Instructions.Reference)
	assert.Equal(t, int64(45900), res.Instructions.AmountDue)
	require.NotNil(t, res.Instructions.ExpiresAt)
}

func TestConekta_SPEI_Pending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "ord_spei",
			"payment_status": "pending_payment",
			"charges": map[string]interface{}{
				"data": []map[string]interface{}{{
					"id": "chg_3",
					"payment_method": map[string]interface{}{
						"type":           "spei",
						"clabe":          "646180111805800000",
						"receiving_bank": "STP",
					},
				}},
			},
		})
	}))
	defer srv.Close()

	g := NewConektaWithBaseURL("key_secret", srv.URL)
	res, err := g.Charge(context.Background(), ChargeRequest{Method: MethodSPEI, Amount: 120000, Currency: "MXN"})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, res.Status)
	require.NotNil(t, res.Instructions)
	assert.Equal(t, "spei", res.Instructions.Type)
	assert.Equal(t, "646180111805800000", res.Instructions.Clabe)
	assert.Equal(t, "STP", res.Instructions.Bank)
}

func TestConekta_Card_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "ord_decl",
			"payment_status": "declined",
			"charges": map[string]interface{}{
				"data": []map[string]interface{}{{
					"id":           "chg_4",
					"status":       "declined",
					"failure_code": "insufficient_funds",
				}},
			},
		})
	}))
	defer srv.Close()

	g := NewConektaWithBaseURL("key_secret", srv.URL)
	res, err := g.Charge(context.Background(), ChargeRequest{Method: MethodCard, Token: "tok_x", Amount: 100})
	require.NoError(t, err)

	assert.Equal(t, StatusDeclined, res.Status)
	assert.Equal(t, conektaDeclineMessages["insufficient_funds"], res.DeclineReason)
}

func TestConekta_CreateToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tokens", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "tok_srv_1"})
	}))
	defer srv.Close()

	g := NewConektaWithBaseURL("key_secret", srv.URL)
	tok, err := g.CreateToken(context.Background(), map[string]interface{}{"number": "4242424242424242"})
	require.NoError(t, err)
	assert.Equal(t, "tok_srv_1", tok)
}
