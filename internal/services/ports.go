package services

import (
	"context"

	"salonbackend/internal/domain/models"
)

// PaymentProcessor is the narrow surface of the external payment processor.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string, idempotencyKey string) (models.IntentHandle, error)
	VerifyWebhook(rawBody []byte, signature string) (models.ProcessorEvent, error)
	CreateRefund(ctx context.Context, intentID, reason string) (models.RefundData, error)
	RetrieveCharge(ctx context.Context, chargeID string) (models.ChargeInfo, error)
}

type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

type CatalogStore interface {
	GetBarber(ctx context.Context, id int64) (models.Barber, error)
	GetServices(ctx context.Context, ids []int64) (map[int64]models.SalonService, error)
	GetSlot(ctx context.Context, id int64) (models.TimeSlot, error)
}

// LedgerStore is the only writer of payments and appointments.
type LedgerStore interface {
	FindByIntentID(ctx context.Context, intentID string) (models.Payment, bool, error)
	ReconcileBooking(ctx context.Context, rec models.BookingRecord) (int64, error)
	ApplyRefund(ctx context.Context, upd models.RefundUpdate) (models.Payment, error)
	MarkDisputed(ctx context.Context, intentID string) (bool, error)
	SetReceiptURL(ctx context.Context, intentID, url string) error
}

type AppointmentReader interface {
	GetDetail(ctx context.Context, id int64) (models.AppointmentDetail, error)
	ListActiveQueue(ctx context.Context, barberID int64) ([]models.QueueEntry, error)
}

type ContactDirectory interface {
	GetContact(ctx context.Context, userID int64) (models.UserContact, error)
}

type EventLog interface {
	RecordReceived(ctx context.Context, ev models.ProcessorEvent) error
	MarkHandled(ctx context.Context, eventID, status, errMsg string) error
}

type Mailer interface {
	SendEmail(ctx context.Context, to, subject, templateID string, data map[string]any) error
}

type AppointmentNotifier interface {
	SendAppointmentNotifications(ctx context.Context, appt models.AppointmentDetail, name, phone string, userID, salonID int64) error
	BroadcastBoardUpdate(ctx context.Context, snapshot models.BoardSnapshot) error
}

// BookingResolver finalizes a draft into a slotted or queued booking.
type BookingResolver interface {
	ResolveBooking(ctx context.Context, barber models.Barber, customerID int64, durationMinutes int, draft models.PendingBooking, slotID int64) (models.PendingBooking, error)
}

// OnlinePaymentGate reports whether online payment is switched on.
type OnlinePaymentGate interface {
	IsOnlinePaymentEnabled(ctx context.Context) (bool, error)
}
