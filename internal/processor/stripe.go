package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// SignatureTolerance is how old a signed webhook timestamp may be.
const SignatureTolerance = 5 * time.Minute

// Stripe adapts the Stripe API to the narrow processor surface used by the payment services.
type Stripe struct {
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	return &Stripe{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		tolerance:     SignatureTolerance,
	}
}

// NewStripeWithBackend points the client at a custom API URL, used against local fakes.
func NewStripeWithBackend(secretKey, webhookSecret, apiURL string) *Stripe {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(apiURL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &Stripe{
		api:           client.New(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend}),
		webhookSecret: webhookSecret,
		tolerance:     SignatureTolerance,
	}
}

func (s *Stripe) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string, idempotencyKey string) (models.IntentHandle, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return models.IntentHandle{}, domain.ProcessorError{Op: "create intent", Err: err}
	}
	return models.IntentHandle{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the raw body and only then decodes the event.
func (s *Stripe) VerifyWebhook(rawBody []byte, signature string) (models.ProcessorEvent, error) {
	if s.webhookSecret == "" {
		return models.ProcessorEvent{}, domain.InvalidSignatureError{Err: fmt.Errorf("webhook secret not configured")}
	}
	if strings.TrimSpace(signature) == "" {
		return models.ProcessorEvent{}, domain.InvalidSignatureError{Err: fmt.Errorf("missing signature header")}
	}
	ev, err := webhook.ConstructEventWithOptions(rawBody, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                s.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return models.ProcessorEvent{}, domain.InvalidSignatureError{Err: err}
	}
	return toProcessorEvent(ev)
}

// CreateRefund refunds the intent in full. Stripe only accepts its own reason codes, so
// the local reason travels in metadata.
func (s *Stripe) CreateRefund(ctx context.Context, intentID, reason string) (models.RefundData, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + intentID + "-" + reason)
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	r, err := s.api.Refunds.New(params)
	if err != nil {
		return models.RefundData{}, domain.ProcessorError{Op: "create refund", Err: err}
	}
	out := toRefundData(r)
	if out.PaymentIntentID == "" {
		out.PaymentIntentID = intentID
	}
	return out, nil
}

func (s *Stripe) RetrieveCharge(ctx context.Context, chargeID string) (models.ChargeInfo, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx
	ch, err := s.api.Charges.Get(chargeID, params)
	if err != nil {
		return models.ChargeInfo{}, domain.ProcessorError{Op: "retrieve charge", Err: err}
	}
	return models.ChargeInfo{ID: ch.ID, ReceiptURL: ch.ReceiptURL}, nil
}

func toProcessorEvent(ev stripe.Event) (models.ProcessorEvent, error) {
	out := models.ProcessorEvent{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch out.Type {
	case models.EventPaymentIntentSucceeded, models.EventPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return out, domain.ValidationError{Field: "data.object", Msg: "malformed payment intent", Err: err}
		}
		out.PaymentIntent = toIntentData(&pi)
	case models.EventRefundCreated, models.EventRefundUpdated:
		var r stripe.Refund
		if err := json.Unmarshal(ev.Data.Raw, &r); err != nil {
			return out, domain.ValidationError{Field: "data.object", Msg: "malformed refund", Err: err}
		}
		data := toRefundData(&r)
		out.Refund = &data
	case models.EventChargeDisputeCreated:
		var d stripe.Dispute
		if err := json.Unmarshal(ev.Data.Raw, &d); err != nil {
			return out, domain.ValidationError{Field: "data.object", Msg: "malformed dispute", Err: err}
		}
		out.Dispute = toDisputeData(&d)
	}
	return out, nil
}

func toIntentData(pi *stripe.PaymentIntent) *models.PaymentIntentData {
	out := &models.PaymentIntentData{
		ID:             pi.ID,
		Amount:         pi.Amount,
		AmountReceived: pi.AmountReceived,
		Currency:       string(pi.Currency),
		Metadata:       pi.Metadata,
	}
	if pi.LatestCharge != nil {
		out.LatestChargeID = pi.LatestCharge.ID
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

func toRefundData(r *stripe.Refund) models.RefundData {
	out := models.RefundData{
		ID:       r.ID,
		Status:   string(r.Status),
		Reason:   string(r.Reason),
		Amount:   r.Amount,
		Currency: string(r.Currency),
		Metadata: r.Metadata,
	}
	if r.PaymentIntent != nil {
		out.PaymentIntentID = r.PaymentIntent.ID
	}
	return out
}

func toDisputeData(d *stripe.Dispute) *models.DisputeData {
	out := &models.DisputeData{
		ID:     d.ID,
		Status: string(d.Status),
		Reason: string(d.Reason),
		Amount: d.Amount,
	}
	if d.PaymentIntent != nil {
		out.PaymentIntentID = d.PaymentIntent.ID
	}
	if d.Charge != nil {
		out.ChargeID = d.Charge.ID
		if out.PaymentIntentID == "" && d.Charge.PaymentIntent != nil {
			out.PaymentIntentID = d.Charge.PaymentIntent.ID
		}
	}
	return out
}
