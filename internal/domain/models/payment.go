package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus mirrors payments.status.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "Pending"
	PaymentProcessing        PaymentStatus = "Processing"
	PaymentSuccess           PaymentStatus = "Success"
	PaymentFailed            PaymentStatus = "Failed"
	PaymentRefunded          PaymentStatus = "Refunded"
	PaymentPartiallyRefunded PaymentStatus = "Partially_Refunded"
	PaymentDisputed          PaymentStatus = "Disputed"
	PaymentCanceled          PaymentStatus = "Canceled"
)

// Payment is one ledger row, keyed by the processor's intent id.
type Payment struct {
	ID              int64           `json:"id"`
	AppointmentID   int64           `json:"appointment_id,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id"`
	UserID          int64           `json:"user_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Tax             decimal.Decimal `json:"tax"`
	Tip             decimal.Decimal `json:"tip"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Currency        string          `json:"currency"`
	Status          PaymentStatus   `json:"status"`
	RefundID        string          `json:"refund_id,omitempty"`
	RefundReason    string          `json:"refund_reason,omitempty"`
	RefundedAt      *time.Time      `json:"refunded_at,omitempty"`
	ReceiptURL      string          `json:"receipt_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// RefundUpdate is applied to the ledger for both processor-reported and self-initiated refunds.
type RefundUpdate struct {
	PaymentIntentID string
	RefundID        string
	Reason          string
	Status          PaymentStatus
	Amount          decimal.Decimal
	Currency        string
	RefundedAt      *time.Time
}
