package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testWebhookSecret = "whsec_test_secret"

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	return NewClientWithBackends(Config{
		SecretKey:        "sk_test_123",
		WebhookSecret:    testWebhookSecret,
		WebhookTolerance: 5 * time.Minute,
		SuccessURL:       "https://salon.test/success",
		CancelURL:        "https://salon.test/cancel",
		Timeout:          5 * time.Second,
	}, &stripe.Backends{API: backend, Connect: backend, Uploads: backend}, nopLogger{})
}

func TestClient_CreateCheckout(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		captured = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.test/cs_test_1"}`))
	})

	checkout, err := client.CreateCheckout(context.Background(), CheckoutRequest{
		DepositID:      11,
		AppointmentID:  42,
		Amount:         1500,
		Currency:       "usd",
		Description:    "Deposit",
		CustomerEmail:  "anna@example.com",
		IdempotencyKey: "deposit-11",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", checkout.ExternalRef)
	assert.Equal(t, "https://checkout.test/cs_test_1", checkout.PaymentURL)

	require.NotNil(t, captured)
	assert.Equal(t, "/v1/checkout/sessions", captured.URL.Path)
	assert.Equal(t, "deposit-11", captured.Header.Get("Idempotency-Key"))
	assert.Equal(t, "payment", captured.PostForm.Get("mode"))
	assert.Equal(t, "11", captured.PostForm.Get("metadata[deposit_id]"))
	assert.Equal(t, "42", captured.PostForm.Get("metadata[appointment_id]"))
	assert.Equal(t, "1500", captured.PostForm.Get("line_items[0][price_data][unit_amount]"))
}

func TestClient_CreateCheckout_ProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	})

	_, err := client.CreateCheckout(context.Background(), CheckoutRequest{DepositID: 1, Amount: 100, Currency: "usd"})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestClient_CreateCheckout_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, nopLogger{})

	_, err := client.CreateCheckout(context.Background(), CheckoutRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func signedPayload(t *testing.T, event map[string]interface{}) ([]byte, string) {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestClient_ParseWebhook(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	t.Run("checkout completed", func(t *testing.T) {
		payload, header := signedPayload(t, map[string]interface{}{
			"id":          "evt_1",
			"object":      "event",
			"type":        "checkout.session.completed",
			"api_version": "2020-08-27",
			"data": map[string]interface{}{
				"object": map[string]interface{}{
					"id":             "cs_test_1",
					"object":         "checkout.session",
					"payment_status": "paid",
					"metadata":       map[string]string{"deposit_id": "11"},
				},
			},
		})

		evt, err := client.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, EventPaid, evt.Kind)
		assert.Equal(t, "cs_test_1", evt.ExternalRef)
		require.NotNil(t, evt.DepositID)
		assert.Equal(t, int64(11), *evt.DepositID)
	})

	t.Run("checkout completed unpaid", func(t *testing.T) {
		payload, header := signedPayload(t, map[string]interface{}{
			"id":   "evt_2",
			"type": "checkout.session.completed",
			"data": map[string]interface{}{
				"object": map[string]interface{}{"id": "cs_test_2", "payment_status": "unpaid"},
			},
		})

		evt, err := client.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, EventIgnored, evt.Kind)
	})

	t.Run("payment intent succeeded", func(t *testing.T) {
		payload, header := signedPayload(t, map[string]interface{}{
			"id":   "evt_3",
			"type": "payment_intent.succeeded",
			"data": map[string]interface{}{
				"object": map[string]interface{}{"id": "pi_1", "metadata": map[string]string{"deposit_id": "12"}},
			},
		})

		evt, err := client.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, EventPaid, evt.Kind)
		assert.Equal(t, int64(12), *evt.DepositID)
	})

	t.Run("unrelated event", func(t *testing.T) {
		payload, header := signedPayload(t, map[string]interface{}{
			"id":   "evt_4",
			"type": "customer.created",
			"data": map[string]interface{}{"object": map[string]interface{}{"id": "cus_1"}},
		})

		evt, err := client.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, EventIgnored, evt.Kind)
	})

	t.Run("bad signature", func(t *testing.T) {
		payload, _ := signedPayload(t, map[string]interface{}{"id": "evt_5", "type": "payment_intent.succeeded"})

		_, err := client.ParseWebhook(payload, "t=1,v1=deadbeef")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}
