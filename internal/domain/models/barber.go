package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Barber struct {
	ID       int64  `json:"id"`
	SalonID  int64  `json:"salon_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	IsActive bool   `json:"is_active"`
}

// IsWalkIn reports whether the barber serves customers by queue position instead of slots.
func (b Barber) IsWalkIn() bool {
	switch strings.ToLower(strings.TrimSpace(b.Category)) {
	case "walk_in", "walk-in", "walkin", "queue":
		return true
	default:
		return false
	}
}

type SalonService struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	DurationMinutes int             `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"`
}

// TimeSlot times are wall-clock "15:04:05" strings as stored in TIME columns.
type TimeSlot struct {
	ID        int64  `json:"id"`
	BarberID  int64  `json:"barber_id"`
	Date      string `json:"slot_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsBooked  bool   `json:"is_booked"`
}

// Minutes is the slot length; zero when either bound is unparsable.
func (s TimeSlot) Minutes() int {
	start, err := parseClock(s.StartTime)
	if err != nil {
		return 0
	}
	end, err := parseClock(s.EndTime)
	if err != nil {
		return 0
	}
	return int(end.Sub(start).Minutes())
}

func parseClock(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if len(v) == len("15:04") {
		return time.Parse("15:04", v)
	}
	return time.Parse("15:04:05", v)
}

type UserContact struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
