package services

import (
	"context"
	"fmt"

	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"
)

// AvailabilityService decides between the walk-in queue and a reserved slot.
// It only reads; the slot is reserved when the payment is reconciled.
type AvailabilityService struct {
	Catalog      CatalogStore
	Appointments AppointmentReader
}

func (s AvailabilityService) ResolveBooking(ctx context.Context, barber models.Barber, customerID int64, durationMinutes int, draft models.PendingBooking, slotID int64) (models.PendingBooking, error) {
	out := draft
	out.BarberID = barber.ID
	if out.SalonID == 0 {
		out.SalonID = barber.SalonID
	}
	if customerID > 0 {
		out.CustomerID = customerID
	}
	out.TotalServiceDuration = durationMinutes

	if barber.IsWalkIn() {
		queue, err := s.Appointments.ListActiveQueue(ctx, barber.ID)
		if err != nil {
			return models.PendingBooking{}, err
		}
		wait := 0
		for _, e := range queue {
			wait += e.ServiceDurationMinutes
		}
		out.QueuePosition = len(queue) + 1
		out.EstimatedWaitMinutes = wait
		out.SlotID = 0
		out.SlotDate = ""
		out.SlotStart = ""
		return out, nil
	}

	slot, err := s.Catalog.GetSlot(ctx, slotID)
	if err != nil {
		return models.PendingBooking{}, err
	}
	if slot.BarberID != barber.ID {
		return models.PendingBooking{}, domain.NotFoundError{Resource: fmt.Sprintf("time slot %d for barber %d", slotID, barber.ID)}
	}
	if slot.IsBooked {
		return models.PendingBooking{}, domain.ConflictError{Resource: "time slot", Msg: fmt.Sprintf("slot %d is already booked", slotID)}
	}
	if slot.Minutes() < durationMinutes {
		return models.PendingBooking{}, domain.ValidationError{
			Field: "slot_id",
			Msg:   fmt.Sprintf("slot is %d minutes, services need %d", slot.Minutes(), durationMinutes),
		}
	}

	out.SlotID = slot.ID
	out.SlotDate = slot.Date
	out.SlotStart = slot.StartTime
	out.QueuePosition = 0
	out.EstimatedWaitMinutes = 0
	return out, nil
}
