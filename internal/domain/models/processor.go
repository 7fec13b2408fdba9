package models

// Webhook event types handled by the reconciler.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventRefundCreated          = "refund.created"
	EventRefundUpdated          = "refund.updated"
	EventChargeDisputeCreated   = "charge.dispute.created"
)

// Processor-side refund statuses.
const (
	RefundSucceeded = "succeeded"
	RefundFailed    = "failed"
	RefundPending   = "pending"
)

type IntentHandle struct {
	ID           string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
}

type PaymentIntentData struct {
	ID             string
	Amount         int64
	AmountReceived int64
	Currency       string
	Metadata       map[string]string
	LatestChargeID string
}

type RefundData struct {
	ID              string
	Status          string
	Reason          string
	PaymentIntentID string
	Amount          int64
	Currency        string
	Metadata        map[string]string
}

type DisputeData struct {
	ID              string
	PaymentIntentID string
	ChargeID        string
	Status          string
	Reason          string
	Amount          int64
}

// ProcessorEvent is a verified webhook; exactly one payload pointer is set for known types.
type ProcessorEvent struct {
	ID            string
	Type          string
	PaymentIntent *PaymentIntentData
	Refund        *RefundData
	Dispute       *DisputeData
}

// IntentID returns the payment intent the event concerns, if any.
func (e ProcessorEvent) IntentID() string {
	switch {
	case e.PaymentIntent != nil:
		return e.PaymentIntent.ID
	case e.Refund != nil:
		return e.Refund.PaymentIntentID
	case e.Dispute != nil:
		return e.Dispute.PaymentIntentID
	}
	return ""
}

type ChargeInfo struct {
	ID         string
	ReceiptURL string
}
