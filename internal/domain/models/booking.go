package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"salonbackend/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Intent metadata keys carrying a pending booking through the processor.
const (
	MetaAppointmentData = "appointmentData"
	MetaUserID          = "user_id"
	MetaTip             = "tip"
	MetaTax             = "tax"
)

// MaxMetadataValueLength is the processor's per-value metadata limit.
const MaxMetadataValueLength = 500

type RequestedService struct {
	ServiceID int64 `json:"service_id" validate:"required,gt=0"`
	Frequency int   `json:"frequency" validate:"gte=1"`
}

// PendingBooking is the prospective appointment serialized into intent metadata at
// checkout and decoded again when the processor confirms the charge.
type PendingBooking struct {
	BarberID      int64              `json:"barber_id" validate:"required,gt=0"`
	SalonID       int64              `json:"salon_id" validate:"required,gt=0"`
	CustomerID    int64              `json:"customer_id,omitempty"`
	CustomerName  string             `json:"name" validate:"required"`
	ContactNumber string             `json:"phone" validate:"required"`
	Email         string             `json:"email,omitempty" validate:"omitempty,email"`
	Services      []RequestedService `json:"services" validate:"required,min=1,dive"`

	SlotID    int64  `json:"slot_id,omitempty"`
	SlotDate  string `json:"slot_date,omitempty"`
	SlotStart string `json:"slot_start,omitempty"`

	QueuePosition        int `json:"queue_position,omitempty"`
	EstimatedWaitMinutes int `json:"estimated_wait_minutes,omitempty"`
	TotalServiceDuration int `json:"total_service_duration,omitempty"`

	UserID      int64           `json:"user_id,omitempty"`
	PaymentMode string          `json:"payment_mode,omitempty"`
	Tip         decimal.Decimal `json:"tip"`
	Tax         decimal.Decimal `json:"tax"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

var bookingValidate = newBookingValidator()

func newBookingValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims contact fields and defaults service frequency to one.
func (b *PendingBooking) Normalize() {
	b.CustomerName = strings.TrimSpace(b.CustomerName)
	b.ContactNumber = strings.TrimSpace(b.ContactNumber)
	b.Email = strings.TrimSpace(b.Email)
	for i := range b.Services {
		if b.Services[i].Frequency == 0 {
			b.Services[i].Frequency = 1
		}
	}
}

// Validate checks the booking schema and names every offending field.
func (b PendingBooking) Validate() error {
	err := bookingValidate.Struct(b)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ValidationError{Field: "appointmentData", Msg: "invalid", Err: err}
	}
	seen := map[string]bool{}
	fields := []string{}
	for _, fe := range verrs {
		name := fe.Namespace()
		if i := strings.Index(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return domain.ValidationError{Field: "appointmentData", Fields: fields, Msg: "invalid appointment data", Err: err}
}

// DedupedServices merges repeated service ids, summing their frequencies.
func (b PendingBooking) DedupedServices() []RequestedService {
	idx := map[int64]int{}
	out := make([]RequestedService, 0, len(b.Services))
	for _, s := range b.Services {
		if i, ok := idx[s.ServiceID]; ok {
			out[i].Frequency += s.Frequency
			continue
		}
		idx[s.ServiceID] = len(out)
		out = append(out, s)
	}
	return out
}

// Metadata encodes the booking for the processor's metadata map.
func (b PendingBooking) Metadata() (map[string]string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxMetadataValueLength {
		return nil, domain.ValidationError{Field: MetaAppointmentData, Msg: "too many services for a single online booking"}
	}
	return map[string]string{
		MetaAppointmentData: string(raw),
		MetaUserID:          strconv.FormatInt(b.UserID, 10),
		MetaTip:             b.Tip.String(),
		MetaTax:             b.Tax.String(),
	}, nil
}

// DecodePendingBooking parses and validates the booking carried in intent metadata.
// The top-level user_id, tip and tax keys take precedence over the embedded copy.
func DecodePendingBooking(meta map[string]string) (PendingBooking, error) {
	raw := strings.TrimSpace(meta[MetaAppointmentData])
	if raw == "" {
		return PendingBooking{}, domain.ValidationError{Field: MetaAppointmentData, Msg: "missing from intent metadata"}
	}

	var b PendingBooking
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return PendingBooking{}, domain.ValidationError{Field: MetaAppointmentData, Msg: "malformed", Err: err}
	}

	if v := strings.TrimSpace(meta[MetaUserID]); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return PendingBooking{}, domain.ValidationError{Field: MetaUserID, Msg: "not a number", Err: err}
		}
		b.UserID = id
	}
	if v := strings.TrimSpace(meta[MetaTip]); v != "" {
		tip, err := decimal.NewFromString(v)
		if err != nil {
			return PendingBooking{}, domain.ValidationError{Field: MetaTip, Msg: "not a number", Err: err}
		}
		b.Tip = tip
	}
	if v := strings.TrimSpace(meta[MetaTax]); v != "" {
		tax, err := decimal.NewFromString(v)
		if err != nil {
			return PendingBooking{}, domain.ValidationError{Field: MetaTax, Msg: "not a number", Err: err}
		}
		b.Tax = tax
	}

	b.Normalize()
	if err := b.Validate(); err != nil {
		return PendingBooking{}, err
	}
	return b, nil
}
