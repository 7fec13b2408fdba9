package services

import (
	"context"
	"strings"
	"time"

	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"
	"salonbackend/internal/utils"
)

// Refund reasons recorded for refunds this service initiates itself.
const (
	ReasonAutomatedCompensation = "automated_compensation"
	ReasonFailedPaymentCapture  = "failed_payment_capture"
	ReasonOperatorRequest       = "operator_request"
)

type RefundResult struct {
	Refund  models.RefundData
	Payment models.Payment
}

// RefundService returns money for charges that cannot be honored locally and
// records every refund outcome on the ledger.
type RefundService struct {
	Processor PaymentProcessor
	Ledger    LedgerStore
	Currency  string
	RequestID string
	Now       func() time.Time
}

// Refund asks the processor to refund the intent in full. A rejected request is
// still recorded as Failed so the ledger never claims money was returned.
func (s RefundService) Refund(ctx context.Context, intentID, reason string) (RefundResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return RefundResult{}, domain.ValidationError{Field: "payment_intent_id", Msg: "required"}
	}

	refund, err := s.Processor.CreateRefund(ctx, intentID, reason)
	if err != nil {
		utils.LogEvent(s.RequestID, "refund", "create_refund", "intent="+intentID+" processor error: "+err.Error())
		failed := models.RefundData{PaymentIntentID: intentID, Status: models.RefundFailed, Reason: reason}
		p, recErr := s.RecordRefund(ctx, failed)
		if recErr != nil {
			utils.LogEvent(s.RequestID, "refund", "record_refund", "intent="+intentID+" error: "+recErr.Error())
		}
		if !domain.IsProcessor(err) {
			err = domain.ProcessorError{Op: "create refund", Err: err}
		}
		return RefundResult{Refund: failed, Payment: p}, err
	}

	if refund.PaymentIntentID == "" {
		refund.PaymentIntentID = intentID
	}
	if refund.Reason == "" {
		refund.Reason = reason
	}
	p, err := s.RecordRefund(ctx, refund)
	if err != nil {
		return RefundResult{Refund: refund}, err
	}
	utils.LogEvent(s.RequestID, "refund", "create_refund",
		"intent="+intentID+" refund="+refund.ID+" status="+refund.Status+" reason="+refund.Reason)
	return RefundResult{Refund: refund, Payment: p}, nil
}

// RefundSettled refunds a reconciled payment on an operator's request. Only a row
// that still holds the customer's money may be refunded.
func (s RefundService) RefundSettled(ctx context.Context, intentID, reason string) (RefundResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return RefundResult{}, domain.ValidationError{Field: "payment_intent_id", Msg: "required"}
	}
	p, found, err := s.Ledger.FindByIntentID(ctx, intentID)
	if err != nil {
		return RefundResult{}, domain.InternalError{Msg: "failed to load payment", Err: err}
	}
	if !found {
		return RefundResult{}, domain.NotFoundError{Resource: "payment"}
	}
	switch p.Status {
	case models.PaymentSuccess, models.PaymentDisputed:
	default:
		return RefundResult{}, domain.ConflictError{Resource: "payment", Msg: "status " + string(p.Status) + " cannot be refunded"}
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = ReasonOperatorRequest
	}
	return s.Refund(ctx, intentID, reason)
}

// RecordRefund applies a refund outcome to the payment row and its appointment.
func (s RefundService) RecordRefund(ctx context.Context, r models.RefundData) (models.Payment, error) {
	if strings.TrimSpace(r.PaymentIntentID) == "" {
		return models.Payment{}, domain.ValidationError{Field: "payment_intent", Msg: "refund carries no payment intent"}
	}

	reason := r.Reason
	if v := r.Metadata["reason"]; v != "" {
		reason = v
	}
	currency := r.Currency
	if currency == "" {
		currency = s.Currency
	}

	upd := models.RefundUpdate{
		PaymentIntentID: r.PaymentIntentID,
		RefundID:        r.ID,
		Reason:          reason,
		Status:          RefundLedgerStatus(r.Status),
		Amount:          utils.FromMinorUnits(r.Amount),
		Currency:        strings.ToLower(currency),
	}
	if upd.Status == models.PaymentRefunded {
		now := s.now()
		upd.RefundedAt = &now
	}

	p, err := s.Ledger.ApplyRefund(ctx, upd)
	if err != nil {
		if domain.IsValidation(err) || domain.IsNotFound(err) {
			return models.Payment{}, err
		}
		return models.Payment{}, domain.InternalError{Msg: "failed to record refund", Err: err}
	}
	return p, nil
}

// RefundLedgerStatus maps a processor refund status onto payments.status.
func RefundLedgerStatus(status string) models.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.RefundSucceeded:
		return models.PaymentRefunded
	case models.RefundFailed:
		return models.PaymentFailed
	default:
		return models.PaymentProcessing
	}
}

func (s RefundService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
