package notify

import (
	"context"
	"fmt"
	"strings"

	"salonbackend/internal/domain/models"
	"salonbackend/internal/utils"
)

// DispatchClient informs salon staff of new appointments and refreshes walk-in boards.
type DispatchClient struct {
	dispatchURL string
	boardURL    string
	poster      poster
	RequestID   string
}

func NewDispatchClient(dispatchURL, boardURL, apiKey string) *DispatchClient {
	return &DispatchClient{
		dispatchURL: strings.TrimSpace(dispatchURL),
		boardURL:    strings.TrimSpace(boardURL),
		poster:      newPoster(apiKey),
	}
}

type appointmentNotice struct {
	Appointment models.AppointmentDetail `json:"appointment"`
	Name        string                   `json:"name"`
	Phone       string                   `json:"phone"`
	UserID      int64                    `json:"user_id"`
	SalonID     int64                    `json:"salon_id"`
}

func (c *DispatchClient) SendAppointmentNotifications(ctx context.Context, appt models.AppointmentDetail, name, phone string, userID, salonID int64) error {
	if c.dispatchURL == "" {
		utils.LogEvent(c.RequestID, "notify", "dispatch_mock", fmt.Sprintf("appointment=%d salon=%d barber=%d", appt.ID, salonID, appt.BarberID))
		return nil
	}
	return c.poster.postJSON(ctx, joinURL(c.dispatchURL, "/appointments"), appointmentNotice{
		Appointment: appt,
		Name:        name,
		Phone:       phone,
		UserID:      userID,
		SalonID:     salonID,
	})
}

func (c *DispatchClient) BroadcastBoardUpdate(ctx context.Context, snapshot models.BoardSnapshot) error {
	if c.boardURL == "" {
		utils.LogEvent(c.RequestID, "notify", "board_mock", fmt.Sprintf("salon=%d barber=%d entries=%d", snapshot.SalonID, snapshot.BarberID, len(snapshot.Entries)))
		return nil
	}
	return c.poster.postJSON(ctx, joinURL(c.boardURL, "/board"), snapshot)
}
