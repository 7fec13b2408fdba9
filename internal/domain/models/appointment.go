package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AppointmentPending   = "pending"
	AppointmentInSalon   = "in_salon"
	AppointmentCheckedIn = "checked_in"
	AppointmentCompleted = "completed"
	AppointmentCanceled  = "canceled"
)

const (
	PaymentModeOnline   = "pay_online"
	PaymentModeInPerson = "pay_in_person"
)

// ActiveQueueStatuses are the appointment states that still occupy a walk-in queue.
var ActiveQueueStatuses = []string{AppointmentPending, AppointmentInSalon, AppointmentCheckedIn}

type Appointment struct {
	ID                     int64         `json:"id"`
	SalonID                int64         `json:"salon_id"`
	BarberID               int64         `json:"barber_id"`
	SlotID                 int64         `json:"slot_id,omitempty"`
	CustomerID             int64         `json:"customer_id"`
	CustomerName           string        `json:"customer_name"`
	ContactNumber          string        `json:"contact_number"`
	PaymentMode            string        `json:"payment_mode"`
	PaymentStatus          PaymentStatus `json:"payment_status"`
	Status                 string        `json:"status"`
	QueuePosition          int           `json:"queue_position,omitempty"`
	EstimatedWaitMinutes   int           `json:"estimated_wait_minutes,omitempty"`
	ServiceDurationMinutes int           `json:"service_duration_minutes"`
	PaymentIntentID        string        `json:"payment_intent_id,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	CanceledAt             *time.Time    `json:"canceled_at,omitempty"`
}

type AppointmentService struct {
	ServiceID       int64           `json:"service_id"`
	Name            string          `json:"name"`
	Frequency       int             `json:"frequency"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
}

// AppointmentDetail is an appointment hydrated with its services, used for notifications.
type AppointmentDetail struct {
	Appointment
	BarberName string               `json:"barber_name"`
	Services   []AppointmentService `json:"services"`
}

// BookingRecord is everything written by one successful reconciliation.
type BookingRecord struct {
	Appointment Appointment
	Payment     Payment
	Services    []RequestedService
}

type QueueEntry struct {
	AppointmentID          int64  `json:"appointment_id"`
	CustomerName           string `json:"customer_name"`
	Status                 string `json:"status"`
	Position               int    `json:"position"`
	ServiceDurationMinutes int    `json:"service_duration_minutes"`
	EstimatedWaitMinutes   int    `json:"estimated_wait_minutes"`
}

// BoardSnapshot is the live walk-in queue pushed to salon display boards.
type BoardSnapshot struct {
	SalonID     int64        `json:"salon_id"`
	BarberID    int64        `json:"barber_id"`
	Entries     []QueueEntry `json:"entries"`
	GeneratedAt time.Time    `json:"generated_at"`
}
