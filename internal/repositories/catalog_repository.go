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

// CatalogRepository reads barbers, services and time slots. It never writes.
type CatalogRepository struct {
	DB *sql.DB
}

func (r CatalogRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r CatalogRepository) GetBarber(ctx context.Context, id int64) (models.Barber, error) {
	if id <= 0 {
		return models.Barber{}, domain.ValidationError{Field: "barber_id", Msg: "invalid id"}
	}
	db := r.db()
	if db == nil {
		return models.Barber{}, fmt.Errorf("db not available")
	}

	var b models.Barber
	err := db.QueryRowContext(ctx,
		`SELECT id, salon_id, COALESCE(name,''), COALESCE(category,''), is_active FROM barbers WHERE id=? LIMIT 1`,
		id).Scan(&b.ID, &b.SalonID, &b.Name, &b.Category, &b.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Barber{}, domain.NotFoundError{Resource: "barber", Err: err}
		}
		return models.Barber{}, err
	}
	return b, nil
}

// GetServices returns the requested services keyed by id. Missing ids are simply absent.
func (r CatalogRepository) GetServices(ctx context.Context, ids []int64) (map[int64]models.SalonService, error) {
	out := map[int64]models.SalonService{}
	if len(ids) == 0 {
		return out, nil
	}
	db := r.db()
	if db == nil {
		return nil, fmt.Errorf("db not available")
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, COALESCE(name,''), duration_minutes, price FROM salon_services WHERE id IN (`+
			strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s models.SalonService
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Price); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

func (r CatalogRepository) GetSlot(ctx context.Context, id int64) (models.TimeSlot, error) {
	if id <= 0 {
		return models.TimeSlot{}, domain.ValidationError{Field: "slot_id", Msg: "invalid id"}
	}
	db := r.db()
	if db == nil {
		return models.TimeSlot{}, fmt.Errorf("db not available")
	}

	var s models.TimeSlot
	err := db.QueryRowContext(ctx, `
		SELECT id, barber_id, DATE_FORMAT(slot_date, '%Y-%m-%d'),
		       TIME_FORMAT(start_time, '%H:%i:%s'), TIME_FORMAT(end_time, '%H:%i:%s'), is_booked
		FROM time_slots WHERE id=? LIMIT 1`, id).Scan(
		&s.ID, &s.BarberID, &s.Date, &s.StartTime, &s.EndTime, &s.IsBooked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TimeSlot{}, domain.NotFoundError{Resource: "time slot", Err: err}
		}
		return models.TimeSlot{}, err
	}
	return s, nil
}
