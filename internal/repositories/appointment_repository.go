package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intconfig "salonbackend/internal/config"
	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"
)

type AppointmentRepository struct {
	DB *sql.DB
}

func (r AppointmentRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// GetDetail loads an appointment with its barber name and attached services.
func (r AppointmentRepository) GetDetail(ctx context.Context, id int64) (models.AppointmentDetail, error) {
	if id <= 0 {
		return models.AppointmentDetail{}, domain.ValidationError{Field: "appointment_id", Msg: "invalid id"}
	}
	db := r.db()
	if db == nil {
		return models.AppointmentDetail{}, fmt.Errorf("db not available")
	}

	var (
		d             models.AppointmentDetail
		slotID        sql.NullInt64
		intentID      sql.NullString
		paymentStatus string
		canceledAt    sql.NullTime
		barberName    sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT a.id, a.salon_id, a.barber_id, a.slot_id, a.customer_id,
		       COALESCE(a.customer_name,''), COALESCE(a.contact_number,''),
		       a.payment_mode, a.payment_status, a.status,
		       a.queue_position, a.estimated_wait_minutes, a.service_duration_minutes,
		       a.payment_intent_id, a.created_at, a.canceled_at, b.name
		FROM appointments a
		LEFT JOIN barbers b ON b.id = a.barber_id
		WHERE a.id=? LIMIT 1`, id).Scan(
		&d.ID, &d.SalonID, &d.BarberID, &slotID, &d.CustomerID,
		&d.CustomerName, &d.ContactNumber,
		&d.PaymentMode, &paymentStatus, &d.Status,
		&d.QueuePosition, &d.EstimatedWaitMinutes, &d.ServiceDurationMinutes,
		&intentID, &d.CreatedAt, &canceledAt, &barberName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AppointmentDetail{}, domain.NotFoundError{Resource: "appointment", Err: err}
		}
		return models.AppointmentDetail{}, err
	}
	d.SlotID = slotID.Int64
	d.PaymentIntentID = intentID.String
	d.PaymentStatus = models.PaymentStatus(paymentStatus)
	d.BarberName = strings.TrimSpace(barberName.String)
	if canceledAt.Valid {
		t := canceledAt.Time
		d.CanceledAt = &t
	}

	rows, err := db.QueryContext(ctx, `
		SELECT s.service_id, COALESCE(c.name,''), s.frequency, s.price, s.duration_minutes
		FROM appointment_services s
		LEFT JOIN salon_services c ON c.id = s.service_id
		WHERE s.appointment_id=?
		ORDER BY s.id ASC`, id)
	if err != nil {
		return models.AppointmentDetail{}, err
	}
	defer rows.Close()

	d.Services = []models.AppointmentService{}
	for rows.Next() {
		var s models.AppointmentService
		if err := rows.Scan(&s.ServiceID, &s.Name, &s.Frequency, &s.Price, &s.DurationMinutes); err != nil {
			return models.AppointmentDetail{}, err
		}
		d.Services = append(d.Services, s)
	}
	if err := rows.Err(); err != nil {
		return models.AppointmentDetail{}, err
	}
	return d, nil
}

// ListActiveQueue returns today's walk-in queue for a barber, in arrival order, with
// positions and cumulative wait already computed.
func (r AppointmentRepository) ListActiveQueue(ctx context.Context, barberID int64) ([]models.QueueEntry, error) {
	db := r.db()
	if db == nil {
		return nil, fmt.Errorf("db not available")
	}

	args := []any{barberID}
	placeholders := make([]string, len(models.ActiveQueueStatuses))
	for i, st := range models.ActiveQueueStatuses {
		placeholders[i] = "?"
		args = append(args, st)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(customer_name,''), status, service_duration_minutes
		FROM appointments
		WHERE barber_id=? AND slot_id IS NULL
		  AND status IN (`+strings.Join(placeholders, ",")+`)
		  AND DATE(created_at)=CURDATE()
		ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.QueueEntry{}
	wait := 0
	for rows.Next() {
		var e models.QueueEntry
		if err := rows.Scan(&e.AppointmentID, &e.CustomerName, &e.Status, &e.ServiceDurationMinutes); err != nil {
			return nil, err
		}
		e.Position = len(out) + 1
		e.EstimatedWaitMinutes = wait
		wait += e.ServiceDurationMinutes
		out = append(out, e)
	}
	return out, rows.Err()
}
