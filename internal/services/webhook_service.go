package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"
	"salonbackend/internal/utils"
)

// WebhookOutcome names what a verified event did to local state.
type WebhookOutcome string

const (
	OutcomeAppointmentCreated WebhookOutcome = "appointment_created"
	OutcomeAlreadyReconciled  WebhookOutcome = "already_reconciled"
	OutcomeCompensated        WebhookOutcome = "compensated"
	OutcomeCompensationFailed WebhookOutcome = "compensation_failed"
	OutcomeRefundIssued       WebhookOutcome = "refund_issued"
	OutcomeNoRefundNeeded     WebhookOutcome = "no_refund_needed"
	OutcomeRefundRecorded     WebhookOutcome = "refund_recorded"
	OutcomeDisputeRecorded    WebhookOutcome = "dispute_recorded"
	OutcomeIgnored            WebhookOutcome = "ignored"
)

const confirmationSubject = "Your appointment is confirmed"

// WebhookService turns processor events into local bookings, refunds and status changes.
// Processor deliveries are at-least-once and unordered; the ledger's unique intent id
// is what keeps a redelivered success from booking twice.
type WebhookService struct {
	Processor    PaymentProcessor
	Ledger       LedgerStore
	Appointments AppointmentReader
	Catalog      CatalogStore
	Contacts     ContactDirectory
	Refunds      RefundService

	// Optional collaborators; nil disables the step.
	Mailer   Mailer
	Notifier AppointmentNotifier
	Events   EventLog

	Currency               string
	ConfirmationTemplateID string
	RequestID              string
	Now                    func() time.Time
}

// HandleWebhook verifies the raw body before anything else. Only a signature failure
// is meant to reach the caller as a rejection; other errors are reported next to the outcome.
func (s WebhookService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (WebhookOutcome, error) {
	ev, err := s.Processor.VerifyWebhook(rawBody, signature)
	if err != nil {
		utils.LogEvent(s.RequestID, "webhook", "verify", err.Error())
		if domain.IsInvalidSignature(err) {
			return "", err
		}
		return "", domain.InvalidSignatureError{Err: err}
	}

	s.Refunds.RequestID = s.RequestID
	s.recordReceived(ctx, ev)

	outcome, err := s.Dispatch(ctx, ev)
	s.markHandled(ctx, ev, outcome, err)

	msg := fmt.Sprintf("event=%s type=%s intent=%s outcome=%s", ev.ID, ev.Type, ev.IntentID(), outcome)
	if err != nil {
		msg += " error=" + err.Error()
	}
	utils.LogEvent(s.RequestID, "webhook", "handle", msg)
	return outcome, err
}

// Dispatch routes a verified event to its handler.
func (s WebhookService) Dispatch(ctx context.Context, ev models.ProcessorEvent) (WebhookOutcome, error) {
	switch ev.Type {
	case models.EventPaymentIntentSucceeded:
		if ev.PaymentIntent == nil {
			return OutcomeIgnored, domain.ValidationError{Field: "data.object", Msg: "payment intent payload missing"}
		}
		return s.handleSucceeded(ctx, *ev.PaymentIntent)
	case models.EventPaymentIntentFailed:
		if ev.PaymentIntent == nil {
			return OutcomeIgnored, domain.ValidationError{Field: "data.object", Msg: "payment intent payload missing"}
		}
		return s.handleFailed(ctx, *ev.PaymentIntent)
	case models.EventRefundCreated, models.EventRefundUpdated:
		if ev.Refund == nil {
			return OutcomeIgnored, domain.ValidationError{Field: "data.object", Msg: "refund payload missing"}
		}
		if _, err := s.Refunds.RecordRefund(ctx, *ev.Refund); err != nil {
			return OutcomeIgnored, err
		}
		return OutcomeRefundRecorded, nil
	case models.EventChargeDisputeCreated:
		if ev.Dispute == nil || ev.Dispute.PaymentIntentID == "" {
			return OutcomeIgnored, nil
		}
		found, err := s.Ledger.MarkDisputed(ctx, ev.Dispute.PaymentIntentID)
		if err != nil {
			return OutcomeIgnored, err
		}
		if !found {
			return OutcomeIgnored, nil
		}
		return OutcomeDisputeRecorded, nil
	default:
		return OutcomeIgnored, nil
	}
}

func (s WebhookService) handleSucceeded(ctx context.Context, pi models.PaymentIntentData) (WebhookOutcome, error) {
	existing, found, err := s.Ledger.FindByIntentID(ctx, pi.ID)
	if err != nil {
		// The unique intent id still guards the insert below.
		utils.LogEvent(s.RequestID, "webhook", "lookup", "intent="+pi.ID+" error: "+err.Error())
	} else if found {
		utils.LogEvent(s.RequestID, "webhook", "reconcile", "intent="+pi.ID+" already recorded as "+string(existing.Status))
		return OutcomeAlreadyReconciled, nil
	}

	booking, err := models.DecodePendingBooking(pi.Metadata)
	if err != nil {
		return s.compensate(ctx, pi.ID, domain.ReconciliationError{Step: "decode booking", IntentID: pi.ID, Err: err})
	}

	rec := s.bookingRecord(pi, booking)
	apptID, err := s.Ledger.ReconcileBooking(ctx, rec)
	if errors.Is(err, domain.ErrAlreadyReconciled) {
		return OutcomeAlreadyReconciled, nil
	}
	if err != nil {
		return s.compensate(ctx, pi.ID, domain.ReconciliationError{Step: "persist booking", IntentID: pi.ID, Err: err})
	}

	detail, err := s.Appointments.GetDetail(ctx, apptID)
	if err != nil {
		return s.compensate(ctx, pi.ID, domain.ReconciliationError{Step: "load appointment", IntentID: pi.ID, Err: err})
	}

	utils.LogEvent(s.RequestID, "webhook", "reconcile",
		fmt.Sprintf("intent=%s appointment=%d barber=%d total=%s", pi.ID, apptID, booking.BarberID, utils.FormatMoney(rec.Payment.TotalAmount)))

	s.storeReceipt(ctx, pi)
	s.sendConfirmation(ctx, booking, detail, rec.Payment)
	s.notifyDispatch(ctx, booking, detail)
	s.broadcastBoard(ctx, booking)
	return OutcomeAppointmentCreated, nil
}

func (s WebhookService) bookingRecord(pi models.PaymentIntentData, b models.PendingBooking) models.BookingRecord {
	total := utils.FromMinorUnits(pi.Amount)
	currency := pi.Currency
	if currency == "" {
		currency = s.Currency
	}
	customerID := b.CustomerID
	if customerID == 0 {
		customerID = b.UserID
	}

	return models.BookingRecord{
		Appointment: models.Appointment{
			SalonID:                b.SalonID,
			BarberID:               b.BarberID,
			SlotID:                 b.SlotID,
			CustomerID:             customerID,
			CustomerName:           b.CustomerName,
			ContactNumber:          b.ContactNumber,
			PaymentMode:            models.PaymentModeOnline,
			PaymentStatus:          models.PaymentSuccess,
			Status:                 models.AppointmentPending,
			QueuePosition:          b.QueuePosition,
			EstimatedWaitMinutes:   b.EstimatedWaitMinutes,
			ServiceDurationMinutes: b.TotalServiceDuration,
			PaymentIntentID:        pi.ID,
		},
		Payment: models.Payment{
			PaymentIntentID: pi.ID,
			UserID:          b.UserID,
			Amount:          utils.ServiceAmount(total, b.Tip, b.Tax),
			Tax:             b.Tax,
			Tip:             b.Tip,
			TotalAmount:     total,
			Currency:        currency,
			Status:          models.PaymentSuccess,
		},
		Services: b.Services,
	}
}

// compensate refunds a charge whose booking could not be recorded.
func (s WebhookService) compensate(ctx context.Context, intentID string, cause error) (WebhookOutcome, error) {
	utils.LogEvent(s.RequestID, "webhook", "compensate", "intent="+intentID+" "+cause.Error())
	if _, err := s.Refunds.Refund(ctx, intentID, ReasonAutomatedCompensation); err != nil {
		utils.LogFatalReconciliation(s.RequestID, intentID, "refund failed: "+err.Error()+"; cause: "+cause.Error())
		return OutcomeCompensationFailed, errors.Join(cause, err)
	}
	return OutcomeCompensated, cause
}

func (s WebhookService) handleFailed(ctx context.Context, pi models.PaymentIntentData) (WebhookOutcome, error) {
	if pi.AmountReceived <= 0 {
		return OutcomeNoRefundNeeded, nil
	}
	if _, err := s.Refunds.Refund(ctx, pi.ID, ReasonFailedPaymentCapture); err != nil {
		utils.LogFatalReconciliation(s.RequestID, pi.ID,
			fmt.Sprintf("refund of %d captured on failed payment failed: %v", pi.AmountReceived, err))
		return OutcomeCompensationFailed, err
	}
	return OutcomeRefundIssued, nil
}

func (s WebhookService) storeReceipt(ctx context.Context, pi models.PaymentIntentData) {
	if pi.LatestChargeID == "" {
		return
	}
	charge, err := s.Processor.RetrieveCharge(ctx, pi.LatestChargeID)
	if err != nil {
		utils.LogEvent(s.RequestID, "webhook", "receipt", "intent="+pi.ID+" error: "+err.Error())
		return
	}
	if charge.ReceiptURL == "" {
		return
	}
	if err := s.Ledger.SetReceiptURL(ctx, pi.ID, charge.ReceiptURL); err != nil {
		utils.LogEvent(s.RequestID, "webhook", "receipt", "intent="+pi.ID+" store error: "+err.Error())
	}
}

func (s WebhookService) sendConfirmation(ctx context.Context, b models.PendingBooking, detail models.AppointmentDetail, p models.Payment) {
	if s.Mailer == nil {
		return
	}
	to := b.Email
	name := b.CustomerName
	if s.Contacts != nil && b.UserID > 0 {
		contact, err := s.Contacts.GetContact(ctx, b.UserID)
		if err != nil {
			utils.LogEvent(s.RequestID, "webhook", "email", fmt.Sprintf("contact lookup user=%d: %v", b.UserID, err))
		} else {
			to = utils.FirstNonEmpty(contact.Email, to)
			name = utils.FirstNonEmpty(name, contact.Name)
		}
	}
	if to == "" {
		utils.LogEvent(s.RequestID, "webhook", "email", fmt.Sprintf("appointment=%d no recipient", detail.ID))
		return
	}

	services := make([]string, 0, len(detail.Services))
	for _, svc := range detail.Services {
		services = append(services, svc.Name)
	}
	data := map[string]any{
		"appointment_id":   detail.ID,
		"customer_name":    name,
		"barber_name":      detail.BarberName,
		"services":         services,
		"slot_date":        b.SlotDate,
		"slot_start":       b.SlotStart,
		"queue_position":   detail.QueuePosition,
		"estimated_wait":   detail.EstimatedWaitMinutes,
		"total_amount":     utils.FormatMoney(p.TotalAmount),
		"tip":              utils.FormatMoney(p.Tip),
		"currency":         p.Currency,
		"payment_intent":   p.PaymentIntentID,
		"duration_minutes": detail.ServiceDurationMinutes,
	}
	if err := s.Mailer.SendEmail(ctx, to, confirmationSubject, s.ConfirmationTemplateID, data); err != nil {
		utils.LogEvent(s.RequestID, "webhook", "email", fmt.Sprintf("appointment=%d error: %v", detail.ID, err))
	}
}

func (s WebhookService) notifyDispatch(ctx context.Context, b models.PendingBooking, detail models.AppointmentDetail) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendAppointmentNotifications(ctx, detail, b.CustomerName, b.ContactNumber, b.UserID, b.SalonID); err != nil {
		utils.LogEvent(s.RequestID, "webhook", "dispatch", fmt.Sprintf("appointment=%d error: %v", detail.ID, err))
	}
}

func (s WebhookService) broadcastBoard(ctx context.Context, b models.PendingBooking) {
	if s.Notifier == nil || s.Catalog == nil {
		return
	}
	barber, err := s.Catalog.GetBarber(ctx, b.BarberID)
	if err != nil {
		utils.LogEvent(s.RequestID, "webhook", "board", fmt.Sprintf("barber=%d error: %v", b.BarberID, err))
		return
	}
	if !barber.IsWalkIn() {
		return
	}
	queue, err := s.Appointments.ListActiveQueue(ctx, barber.ID)
	if err != nil {
		utils.LogEvent(s.RequestID, "webhook", "board", fmt.Sprintf("barber=%d queue error: %v", barber.ID, err))
		return
	}
	snapshot := models.BoardSnapshot{
		SalonID:     utils.FirstNonZero(b.SalonID, barber.SalonID),
		BarberID:    barber.ID,
		Entries:     queue,
		GeneratedAt: s.now(),
	}
	if err := s.Notifier.BroadcastBoardUpdate(ctx, snapshot); err != nil {
		utils.LogEvent(s.RequestID, "webhook", "board", fmt.Sprintf("barber=%d error: %v", barber.ID, err))
	}
}

func (s WebhookService) recordReceived(ctx context.Context, ev models.ProcessorEvent) {
	if s.Events == nil || ev.ID == "" {
		return
	}
	if err := s.Events.RecordReceived(ctx, ev); err != nil {
		utils.LogEvent(s.RequestID, "webhook", "event_log", "event="+ev.ID+" error: "+err.Error())
	}
}

func (s WebhookService) markHandled(ctx context.Context, ev models.ProcessorEvent, outcome WebhookOutcome, handleErr error) {
	if s.Events == nil || ev.ID == "" {
		return
	}
	status, msg := "processed", string(outcome)
	if handleErr != nil {
		status, msg = "failed", string(outcome)+": "+handleErr.Error()
	}
	if err := s.Events.MarkHandled(ctx, ev.ID, status, msg); err != nil {
		utils.LogEvent(s.RequestID, "webhook", "event_log", "event="+ev.ID+" error: "+err.Error())
	}
}

func (s WebhookService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
