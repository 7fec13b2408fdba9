package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newRefundService(proc *fakeProcessor, ledger *fakeLedger) RefundService {
	return RefundService{
		Processor: proc,
		Ledger:    ledger,
		Currency:  "usd",
		RequestID: "req-test",
		Now:       func() time.Time { return fixedNow },
	}
}

func TestRefundLedgerStatus(t *testing.T) {
	cases := map[string]models.PaymentStatus{
		"succeeded":       models.PaymentRefunded,
		"failed":          models.PaymentFailed,
		"canceled":        models.PaymentProcessing,
		"pending":         models.PaymentProcessing,
		"requires_action": models.PaymentProcessing,
		"":                models.PaymentProcessing,
	}
	for in, want := range cases {
		if got := RefundLedgerStatus(in); got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestRefundCancelsLinkedAppointment(t *testing.T) {
	ledger := newFakeLedger(testCatalog().services)
	ledger.appointments[1] = models.Appointment{ID: 1, Status: models.AppointmentPending, PaymentStatus: models.PaymentSuccess}
	ledger.payments["pi_1"] = models.Payment{PaymentIntentID: "pi_1", AppointmentID: 1, Status: models.PaymentSuccess}
	proc := &fakeProcessor{}

	res, err := newRefundService(proc, ledger).Refund(context.Background(), "pi_1", ReasonAutomatedCompensation)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if res.Payment.Status != models.PaymentRefunded || res.Payment.RefundReason != ReasonAutomatedCompensation {
		t.Fatalf("unexpected payment %+v", res.Payment)
	}
	if res.Payment.RefundedAt == nil || !res.Payment.RefundedAt.Equal(fixedNow) {
		t.Fatalf("expected refunded_at set, got %v", res.Payment.RefundedAt)
	}
	appt := ledger.appointments[1]
	if appt.Status != models.AppointmentCanceled || appt.PaymentStatus != models.PaymentRefunded || appt.CanceledAt == nil {
		t.Fatalf("expected canceled appointment, got %+v", appt)
	}
	if len(proc.refunds) != 1 || proc.refunds[0] != "pi_1:"+ReasonAutomatedCompensation {
		t.Fatalf("unexpected processor refunds %v", proc.refunds)
	}
}

func TestRefundPendingKeepsAppointment(t *testing.T) {
	ledger := newFakeLedger(nil)
	ledger.appointments[1] = models.Appointment{ID: 1, Status: models.AppointmentPending, PaymentStatus: models.PaymentSuccess}
	ledger.payments["pi_1"] = models.Payment{PaymentIntentID: "pi_1", AppointmentID: 1, Status: models.PaymentSuccess}
	proc := &fakeProcessor{refundStatus: models.RefundPending}

	res, err := newRefundService(proc, ledger).Refund(context.Background(), "pi_1", "requested_by_customer")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if res.Payment.Status != models.PaymentProcessing || res.Payment.RefundedAt != nil {
		t.Fatalf("unexpected payment %+v", res.Payment)
	}
	appt := ledger.appointments[1]
	if appt.Status != models.AppointmentPending || appt.PaymentStatus != models.PaymentProcessing || appt.CanceledAt != nil {
		t.Fatalf("appointment must stay booked while refund is pending, got %+v", appt)
	}
}

func TestRefundProcessorFailureRecordsFailed(t *testing.T) {
	ledger := newFakeLedger(nil)
	proc := &fakeProcessor{refundErr: errors.New("charge already refunded")}

	res, err := newRefundService(proc, ledger).Refund(context.Background(), "pi_9", ReasonAutomatedCompensation)
	if !domain.IsProcessor(err) {
		t.Fatalf("expected processor error, got %v", err)
	}
	p, ok := ledger.payments["pi_9"]
	if !ok || p.Status != models.PaymentFailed {
		t.Fatalf("expected Failed placeholder row, got %+v", p)
	}
	if res.Payment.Status != models.PaymentFailed {
		t.Fatalf("expected result to carry Failed row, got %+v", res.Payment)
	}
}

func TestRecordRefundCreatesPlaceholder(t *testing.T) {
	ledger := newFakeLedger(nil)
	svc := newRefundService(&fakeProcessor{}, ledger)

	p, err := svc.RecordRefund(context.Background(), models.RefundData{
		ID: "re_1", Status: "succeeded", PaymentIntentID: "pi_early", Amount: 1500,
		Metadata: map[string]string{"reason": "customer_request"},
	})
	if err != nil {
		t.Fatalf("record refund: %v", err)
	}
	if p.Status != models.PaymentRefunded || p.RefundID != "re_1" || p.RefundReason != "customer_request" {
		t.Fatalf("unexpected payment %+v", p)
	}
	if p.Currency != "usd" {
		t.Fatalf("expected configured currency fallback, got %q", p.Currency)
	}

	// A late pending update must not undo a completed refund.
	p, err = svc.RecordRefund(context.Background(), models.RefundData{ID: "re_1", Status: "pending", PaymentIntentID: "pi_early"})
	if err != nil {
		t.Fatalf("record late refund: %v", err)
	}
	if p.Status != models.PaymentRefunded {
		t.Fatalf("expected Refunded to stick, got %s", p.Status)
	}
}

func TestRecordRefundRequiresIntent(t *testing.T) {
	_, err := newRefundService(&fakeProcessor{}, newFakeLedger(nil)).RecordRefund(context.Background(), models.RefundData{ID: "re_1"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRefundSettled(t *testing.T) {
	ledger := newFakeLedger(nil)
	ledger.payments["pi_paid"] = models.Payment{PaymentIntentID: "pi_paid", Status: models.PaymentSuccess}
	ledger.payments["pi_done"] = models.Payment{PaymentIntentID: "pi_done", Status: models.PaymentRefunded}
	proc := &fakeProcessor{}
	svc := newRefundService(proc, ledger)

	res, err := svc.RefundSettled(context.Background(), "pi_paid", " ")
	if err != nil {
		t.Fatalf("refund settled: %v", err)
	}
	if res.Payment.Status != models.PaymentRefunded || res.Payment.RefundReason != ReasonOperatorRequest {
		t.Fatalf("unexpected payment %+v", res.Payment)
	}

	if _, err := svc.RefundSettled(context.Background(), "pi_done", ""); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for refunded row, got %v", err)
	}
	if _, err := svc.RefundSettled(context.Background(), "pi_none", ""); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(proc.refunds) != 1 {
		t.Fatalf("expected exactly one processor refund, got %v", proc.refunds)
	}
}
