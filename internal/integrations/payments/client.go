package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v79"
	stripeclient "github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Config параметры клиента Stripe
type Config struct {
	SecretKey        string
	WebhookSecret    string
	WebhookTolerance time.Duration
	SuccessURL       string
	CancelURL        string
	Timeout          time.Duration
}

// Client клиент платежного провайдера (Stripe Checkout)
type Client struct {
	api *stripeclient.API
	cfg Config
	log Logger
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// NewClient создает клиент с бэкендом Stripe по умолчанию
func NewClient(cfg Config, log Logger) *Client {
	return NewClientWithBackends(cfg, nil, log)
}

// NewClientWithBackends создает клиент с заданными бэкендами (nil = по умолчанию)
func NewClientWithBackends(cfg Config, backends *stripe.Backends, log Logger) *Client {
	api := &stripeclient.API{}
	api.Init(cfg.SecretKey, backends)

	return &Client{
		api: api,
		cfg: cfg,
		log: log,
	}
}

// CreateCheckout создает checkout-сессию в режиме payment
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if c.cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	metadata := map[string]string{
		metadataDepositID:     strconv.FormatInt(req.DepositID, 10),
		metadataAppointmentID: strconv.FormatInt(req.AppointmentID, 10),
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(req.AppointmentID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateCheckout - deposit_id=%d: %v", ErrProvider, req.DepositID, err)
	}

	c.log.Info("Checkout session created: deposit_id=%d, session=%s", req.DepositID, sess.ID)

	return &Checkout{
		ExternalRef: sess.ID,
		PaymentURL:  sess.URL,
	}, nil
}

// ParseWebhook проверяет подпись и извлекает событие оплаты
// Неизвестные типы событий возвращаются как EventIgnored
func (c *Client) ParseWebhook(payload []byte, signature string) (*PaymentEvent, error) {
	if c.cfg.WebhookSecret == "" {
		return nil, ErrNotConfigured
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                c.cfg.WebhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &PaymentEvent{
		Kind:      EventIgnored,
		EventID:   evt.ID,
		EventType: string(evt.Type),
	}

	switch string(evt.Type) {
	case eventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrInvalidPayload, err)
		}
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			c.log.Info("ParseWebhook: checkout session %s completed without payment (status=%s)", sess.ID, sess.PaymentStatus)
			return result, nil
		}
		result.Kind = EventPaid
		result.ExternalRef = sess.ID
		result.DepositID = depositIDFromMetadata(sess.Metadata)

	case eventPaymentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: payment intent: %v", ErrInvalidPayload, err)
		}
		result.DepositID = depositIDFromMetadata(intent.Metadata)
		if result.DepositID == nil {
			c.log.Warn("ParseWebhook: payment intent %s without deposit metadata", intent.ID)
			return result, nil
		}
		result.Kind = EventPaid
	}

	if result.Kind == EventPaid && result.DepositID == nil && result.ExternalRef == "" {
		return nil, fmt.Errorf("%w: event %s has no deposit reference", ErrInvalidPayload, evt.ID)
	}

	return result, nil
}

func depositIDFromMetadata(metadata map[string]string) *int64 {
	raw, ok := metadata[metadataDepositID]
	if !ok {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
