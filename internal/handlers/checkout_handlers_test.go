package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaria-mx/lunaria-api/internal/checkout"
	"github.com/lunaria-mx/lunaria-api/internal/models"
	"github.com/lunaria-mx/lunaria-api/internal/payments"
)

type stubCatalog struct {
	products map[int64]models.Product
}

func (s *stubCatalog) ProductsByIDs(_ context.Context, ids []int64) (map[int64]models.Product, error) {
	out := map[int64]models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type stubOrders struct{}

func (s *stubOrders) Create(context.Context, *models.Order, []models.OrderItem) error {
	return nil
}

type stubGateway struct{}

func (stubGateway) Name() string { return "stub" }
func (stubGateway) Charge(context.Context, payments.ChargeRequest) (*payments.ChargeResult, error) {
	return &payments.ChargeResult{Status: payments.StatusPaid}, nil
}

func checkoutTestHandlers(catalog checkout.Catalog) *Handlers {
	return &Handlers{
		CheckoutSvc: checkout.NewService(catalog, &stubOrders{}),
		Gateways:    map[string]payments.Gateway{"clip": stubGateway{}},
	}
}

func postCheckout(t *testing.T, h *Handlers, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/checkout", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Checkout(c)
	return w
}

func validCheckoutBody() map[string]interface{} {
	return map[string]interface{}{
		"items":          []map[string]interface{}{{"productId": 1, "quantity": 1}},
		"shippingMethod": "standard",
		"email":          "cliente@example.com",
		"name":           "Cliente Prueba",
		"address": map[string]interface{}{
			"street":     "Av. Reforma 100",
			"city":       "CDMX",
			"state":      "CDMX",
			"postalCode": "06600",
		},
		"provider": "clip",
		"method":   "card",
		"token":    "tok_test",
	}
}

func TestListPaymentMethodsWithoutAdapterConfigured(t *testing.T) {
	// A dev environment may run without MP_ACCESS_TOKEN; the endpoint must
	// answer 503, not panic on the nil adapter.
	gin.SetMode(gin.TestMode)
	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/payment-methods", nil)
	h.ListPaymentMethods(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCheckoutRejectsUnknownProvider(t *testing.T) {
	h := checkoutTestHandlers(&stubCatalog{})

	body := validCheckoutBody()
	body["provider"] = "paypal"
	w := postCheckout(t, h, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutRejectsUnconfiguredProvider(t *testing.T) {
	h := checkoutTestHandlers(&stubCatalog{})
	h.Gateways = map[string]payments.Gateway{} // nothing configured

	w := postCheckout(t, h, validCheckoutBody())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown payment provider")
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	h := checkoutTestHandlers(&stubCatalog{})

	body := validCheckoutBody()
	body["items"] = []map[string]interface{}{}
	w := postCheckout(t, h, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutReportsUnavailableItems(t *testing.T) {
	h := checkoutTestHandlers(&stubCatalog{products: map[int64]models.Product{
		1: {ID: 1, Name: "Vestido Luna", Price: 59900, Status: "draft"},
	}})

	w := postCheckout(t, h, validCheckoutBody())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Items []checkout.ItemError `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(1), resp.Items[0].ProductID)
}

func TestCheckoutRejectsUnknownShippingMethod(t *testing.T) {
	h := checkoutTestHandlers(&stubCatalog{products: map[int64]models.Product{
		1: {ID: 1, Name: "Vestido Luna", Price: 59900, Status: "active"},
	}})

	body := validCheckoutBody()
	body["shippingMethod"] = "drone"
	w := postCheckout(t, h, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
