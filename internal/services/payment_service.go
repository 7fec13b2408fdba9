package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"
	"salonbackend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateIntentRequest is a checkout request; nil pointers mean the field was not sent.
type CreateIntentRequest struct {
	UserID      int64
	TotalAmount *decimal.Decimal
	Tip         *decimal.Decimal
	Appointment *models.PendingBooking
}

// PaymentService starts online checkouts and answers status polls.
// It never writes local state: bookings materialize only when the processor confirms.
type PaymentService struct {
	Gate      OnlinePaymentGate
	Catalog   CatalogStore
	Resolver  BookingResolver
	Processor PaymentProcessor
	Ledger    LedgerStore
	Currency  string
	RequestID string

	// NewIdempotencyKey defaults to a random UUID.
	NewIdempotencyKey func() string
}

// CreatePaymentIntent validates the request, prices the booking and asks the processor
// for an intent carrying the pending booking in its metadata.
func (s PaymentService) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (models.IntentHandle, error) {
	enabled, err := s.Gate.IsOnlinePaymentEnabled(ctx)
	if err != nil {
		return models.IntentHandle{}, domain.InternalError{Msg: "failed to read payment settings", Err: err}
	}
	if !enabled {
		return models.IntentHandle{}, domain.PaymentsDisabledError{}
	}

	missing := []string{}
	if req.UserID <= 0 {
		missing = append(missing, "user_id")
	}
	if req.Appointment == nil {
		missing = append(missing, "appointmentData")
	}
	if req.TotalAmount == nil {
		missing = append(missing, "totalAmount")
	}
	if req.Tip == nil {
		missing = append(missing, "validatedTip")
	}
	if len(missing) > 0 {
		return models.IntentHandle{}, domain.ValidationError{Fields: missing, Msg: "missing required fields"}
	}
	if !req.TotalAmount.IsPositive() {
		return models.IntentHandle{}, domain.ValidationError{Field: "totalAmount", Msg: "must be greater than zero"}
	}
	if req.Tip.IsNegative() {
		return models.IntentHandle{}, domain.ValidationError{Field: "validatedTip", Msg: "must not be negative"}
	}

	booking := *req.Appointment
	booking.Normalize()
	if err := booking.Validate(); err != nil {
		return models.IntentHandle{}, err
	}

	barber, err := s.Catalog.GetBarber(ctx, booking.BarberID)
	if err != nil {
		return models.IntentHandle{}, err
	}
	if !barber.IsActive {
		return models.IntentHandle{}, domain.NotFoundError{Resource: "barber"}
	}
	if !barber.IsWalkIn() && booking.SlotID <= 0 {
		return models.IntentHandle{}, domain.ValidationError{Field: "slot_id", Msg: "required for barbers booked by time slot"}
	}

	booking.Services = booking.DedupedServices()
	duration, err := s.totalDuration(ctx, booking.Services)
	if err != nil {
		return models.IntentHandle{}, err
	}

	resolved, err := s.Resolver.ResolveBooking(ctx, barber, req.UserID, duration, booking, booking.SlotID)
	if err != nil {
		return models.IntentHandle{}, err
	}
	resolved.UserID = req.UserID
	resolved.PaymentMode = models.PaymentModeOnline
	resolved.Tip = *req.Tip
	resolved.TotalAmount = *req.TotalAmount

	meta, err := resolved.Metadata()
	if err != nil {
		return models.IntentHandle{}, err
	}

	amount := utils.ToMinorUnits(resolved.TotalAmount)
	handle, err := s.Processor.CreateIntent(ctx, amount, s.currency(), meta, s.idempotencyKey())
	if err != nil {
		utils.LogEvent(s.RequestID, "payment", "create_intent", "processor error: "+err.Error())
		if domain.IsProcessor(err) {
			return models.IntentHandle{}, err
		}
		return models.IntentHandle{}, domain.ProcessorError{Op: "create intent", Err: err}
	}
	if handle.ID == "" || handle.ClientSecret == "" {
		return models.IntentHandle{}, domain.ProcessorError{Op: "create intent", Err: ErrNoIntent}
	}

	utils.LogEvent(s.RequestID, "payment", "create_intent",
		fmt.Sprintf("intent=%s user=%d barber=%d amount=%d duration=%d", handle.ID, req.UserID, barber.ID, amount, duration))
	return handle, nil
}

func (s PaymentService) totalDuration(ctx context.Context, services []models.RequestedService) (int, error) {
	ids := make([]int64, 0, len(services))
	for _, svc := range services {
		ids = append(ids, svc.ServiceID)
	}
	catalog, err := s.Catalog.GetServices(ctx, ids)
	if err != nil {
		return 0, err
	}

	missing := []string{}
	total := 0
	for _, svc := range services {
		item, ok := catalog[svc.ServiceID]
		if !ok {
			missing = append(missing, strconv.FormatInt(svc.ServiceID, 10))
			continue
		}
		total += item.DurationMinutes * svc.Frequency
	}
	if len(missing) > 0 {
		return 0, domain.NotFoundError{Resource: "service " + strings.Join(missing, ", ")}
	}
	return total, nil
}

// GetStatus reports the ledger status of an intent, or Pending before any webhook landed.
func (s PaymentService) GetStatus(ctx context.Context, intentID string) (models.PaymentStatus, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return "", domain.ValidationError{Field: "intentId", Msg: "required"}
	}
	p, found, err := s.Ledger.FindByIntentID(ctx, intentID)
	if err != nil {
		if domain.IsValidation(err) {
			return "", err
		}
		return "", domain.InternalError{Msg: "failed to read payment status", Err: err}
	}
	if !found {
		return models.PaymentPending, nil
	}
	return p.Status, nil
}

func (s PaymentService) currency() string {
	if c := strings.TrimSpace(s.Currency); c != "" {
		return strings.ToLower(c)
	}
	return "usd"
}

func (s PaymentService) idempotencyKey() string {
	if s.NewIdempotencyKey != nil {
		return s.NewIdempotencyKey()
	}
	return uuid.NewString()
}

var ErrNoIntent = errors.New("processor returned an incomplete intent")
