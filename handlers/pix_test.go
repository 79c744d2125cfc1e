package handlers_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"minhacomanda-api/config"
	"minhacomanda-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

// fakeGateway is a stand-in Mercado Pago: it answers charge creation and
// payment detail lookups, and counts how often it is hit.
type fakeGateway struct {
	server        *httptest.Server
	hits          int
	paymentStatus string
}

func newFakeGateway() *fakeGateway {
	g := &fakeGateway{paymentStatus: "approved"}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.hits++
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost && r.URL.Path == "/v1/payments" {
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{
				"id": 987654,
				"status": "pending",
				"point_of_interaction": {
					"transaction_data": {"qr_code": "00020126pix", "qr_code_base64": "cXI="}
				}
			}`)
			return
		}
		fmt.Fprintf(w, `{"id": 987654, "status": %q}`, g.paymentStatus)
	}))
	return g
}

func gatewayConfig(g *fakeGateway) *config.App {
	return &config.App{
		PixProvider:     "mercadopago",
		MPAccessToken:   "test-token",
		MPWebhookSecret: webhookSecret,
		MPBaseURL:       g.server.URL,
		PublicBaseURL:   "http://localhost:8080",
	}
}

func signature(paymentID, requestID, ts string) http.Header {
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", paymentID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(manifest))
	h := http.Header{}
	h.Set("x-signature", fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	h.Set("x-request-id", requestID)
	return h
}

func paymentWebhook(paymentID string) map[string]interface{} {
	return map[string]interface{}{
		"type":   "payment",
		"action": "payment.updated",
		"data":   map[string]string{"id": paymentID},
	}
}

func TestCreateCharge_FallbackMode(t *testing.T) {
	api := newTestAPI(t, nil) // PixProvider disabled
	orderID := api.placeOrder(t, 2)

	w := api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-4",
		"orderId": orderID,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decode(t, w)
	require.True(t, env.Success)
	pix := env.Data["pix"].(map[string]interface{})
	assert.Equal(t, "fallback", pix["mode"])
	assert.Equal(t, "cantina@banco.com.br", pix["copiaECola"])
	// Fallback charges never move payment_status; staff confirm manually
	assert.Equal(t, "unpaid", env.Data["paymentStatus"])

	var order models.Order
	require.NoError(t, api.db.First(&order, orderID).Error)
	assert.Empty(t, order.PixChargeID)
}

func TestCreateCharge_GatewayMode(t *testing.T) {
	g := newFakeGateway()
	defer g.server.Close()
	api := newTestAPI(t, gatewayConfig(g))
	orderID := api.placeOrder(t, 2)

	w := api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-4",
		"orderId": orderID,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decode(t, w)
	pix := env.Data["pix"].(map[string]interface{})
	assert.Equal(t, "provider", pix["mode"])
	assert.Equal(t, "987654", pix["chargeId"])
	assert.Equal(t, "pending", env.Data["paymentStatus"])

	var order models.Order
	require.NoError(t, api.db.First(&order, orderID).Error)
	assert.Equal(t, "987654", order.PixChargeID)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
}

func TestCreateCharge_SecondCallKeepsFirstChargeID(t *testing.T) {
	g := newFakeGateway()
	defer g.server.Close()
	api := newTestAPI(t, gatewayConfig(g))
	orderID := api.placeOrder(t, 1)

	// First call attaches the charge
	w := api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-4", "orderId": orderID,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Simulate the stored id differing from a later gateway response
	require.NoError(t, api.db.Model(&models.Order{}).Where("id = ?", orderID).
		Update("pix_charge_id", "charge-original").Error)

	w = api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-4", "orderId": orderID,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	pix := env.Data["pix"].(map[string]interface{})
	assert.Equal(t, "charge-original", pix["chargeId"])

	var order models.Order
	require.NoError(t, api.db.First(&order, orderID).Error)
	assert.Equal(t, "charge-original", order.PixChargeID)
}

func TestCreateCharge_AlreadyPaid(t *testing.T) {
	g := newFakeGateway()
	defer g.server.Close()
	api := newTestAPI(t, gatewayConfig(g))
	orderID := api.placeOrder(t, 1)

	require.NoError(t, api.db.Model(&models.Order{}).Where("id = ?", orderID).
		Update("payment_status", models.PaymentPaid).Error)

	before := g.hits
	w := api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-4", "orderId": orderID,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Data["alreadyPaid"])
	assert.Equal(t, before, g.hits, "paid orders must not contact the provider")
}

func TestCreateCharge_OrderOfAnotherTable(t *testing.T) {
	api := newTestAPI(t, nil)
	orderID := api.placeOrder(t, 1)

	other := models.Table{RestaurantID: api.restaurant.ID, Number: 9, QRToken: "tok-mesa-9", IsActive: true}
	require.NoError(t, api.db.Create(&other).Error)

	w := api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-9", "orderId": orderID,
	}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPixWebhook_ApprovedPaymentClosesOrder(t *testing.T) {
	g := newFakeGateway()
	defer g.server.Close()
	api := newTestAPI(t, gatewayConfig(g))
	orderID := api.placeOrder(t, 2)

	w := api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-4", "orderId": orderID,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.request(t, http.MethodPost, "/api/pix/webhook",
		paymentWebhook("987654"), signature("987654", "req-1", "1693500000"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var order models.Order
	require.NoError(t, api.db.Preload("Events").First(&order, orderID).Error)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, models.StatusClosed, order.Status)

	var closedEvents int
	for _, e := range order.Events {
		if e.ToStatus == models.StatusClosed {
			closedEvents++
			assert.Equal(t, models.SourceSystem, e.Source)
		}
	}
	assert.Equal(t, 1, closedEvents)
}

func TestPixWebhook_DuplicateDeliveryIsIdempotent(t *testing.T) {
	g := newFakeGateway()
	defer g.server.Close()
	api := newTestAPI(t, gatewayConfig(g))
	orderID := api.placeOrder(t, 1)

	api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-4", "orderId": orderID,
	}, nil)

	for i := 0; i < 2; i++ {
		w := api.request(t, http.MethodPost, "/api/pix/webhook",
			paymentWebhook("987654"), signature("987654", fmt.Sprintf("req-%d", i), "1693500000"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	var closedEvents int64
	require.NoError(t, api.db.Model(&models.OrderEvent{}).
		Where("order_id = ? AND to_status = ?", orderID, models.StatusClosed).
		Count(&closedEvents).Error)
	assert.Equal(t, int64(1), closedEvents)
}

func TestPixWebhook_BadSignatureRejectedBeforeAnyLookup(t *testing.T) {
	g := newFakeGateway()
	defer g.server.Close()
	api := newTestAPI(t, gatewayConfig(g))
	orderID := api.placeOrder(t, 1)

	api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-4", "orderId": orderID,
	}, nil)
	before := g.hits

	h := http.Header{}
	h.Set("x-signature", "ts=1693500000,v1=deadbeef")
	h.Set("x-request-id", "req-1")
	w := api.request(t, http.MethodPost, "/api/pix/webhook", paymentWebhook("987654"), h)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, before, g.hits, "spoofed webhook must not reach the gateway")

	var order models.Order
	require.NoError(t, api.db.First(&order, orderID).Error)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
}

func TestPixWebhook_NotApprovedIsNoMutation(t *testing.T) {
	g := newFakeGateway()
	g.paymentStatus = "rejected"
	defer g.server.Close()
	api := newTestAPI(t, gatewayConfig(g))
	orderID := api.placeOrder(t, 1)

	api.request(t, http.MethodPost, "/api/pix/create-charge", map[string]interface{}{
		"qrToken": "tok-mesa-4", "orderId": orderID,
	}, nil)

	w := api.request(t, http.MethodPost, "/api/pix/webhook",
		paymentWebhook("987654"), signature("987654", "req-1", "1693500000"))
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, false, env.Data["approved"])

	var order models.Order
	require.NoError(t, api.db.First(&order, orderID).Error)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.NotEqual(t, models.StatusClosed, order.Status)
}

func TestPixWebhook_UnknownChargeAcknowledged(t *testing.T) {
	g := newFakeGateway()
	defer g.server.Close()
	api := newTestAPI(t, gatewayConfig(g))

	w := api.request(t, http.MethodPost, "/api/pix/webhook",
		paymentWebhook("987654"), signature("987654", "req-1", "1693500000"))
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Data["processed"])
	assert.Equal(t, false, env.Data["orderFound"])
}

func TestPixWebhook_NonPaymentEventIgnored(t *testing.T) {
	g := newFakeGateway()
	defer g.server.Close()
	api := newTestAPI(t, gatewayConfig(g))

	body := map[string]interface{}{
		"type":   "plan",
		"action": "plan.updated",
		"data":   map[string]string{"id": "42"},
	}
	w := api.request(t, http.MethodPost, "/api/pix/webhook", body, signature("42", "req-1", "1693500000"))
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Data["ignored"])
}

func TestPixWebhook_GatewayDisabled(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.request(t, http.MethodPost, "/api/pix/webhook", paymentWebhook("987654"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Data["ignored"])
}
