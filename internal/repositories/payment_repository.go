package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intconfig "salonbackend/internal/config"
	intdb "salonbackend/internal/db"
	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"
)

// PaymentRepository owns the payments ledger. payment_intent_id is unique and is the
// only arbiter between concurrent webhook handlers.
type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const paymentColumns = `id,
	COALESCE(appointment_id,0),
	payment_intent_id,
	COALESCE(user_id,0),
	amount, tax, tip, total_amount,
	COALESCE(currency,''),
	status,
	COALESCE(refund_id,''),
	COALESCE(refund_reason,''),
	refunded_at,
	COALESCE(receipt_url,''),
	created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (models.Payment, error) {
	var (
		p          models.Payment
		status     string
		refundedAt sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.AppointmentID,
		&p.PaymentIntentID,
		&p.UserID,
		&p.Amount,
		&p.Tax,
		&p.Tip,
		&p.TotalAmount,
		&p.Currency,
		&status,
		&p.RefundID,
		&p.RefundReason,
		&refundedAt,
		&p.ReceiptURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return models.Payment{}, err
	}
	p.Status = models.PaymentStatus(status)
	if refundedAt.Valid {
		t := refundedAt.Time
		p.RefundedAt = &t
	}
	return p, nil
}

// FindByIntentID returns the ledger row for an intent; found is false when none exists yet.
func (r PaymentRepository) FindByIntentID(ctx context.Context, intentID string) (models.Payment, bool, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return models.Payment{}, false, domain.ValidationError{Field: "payment_intent_id", Msg: "required"}
	}
	db := r.db()
	if db == nil {
		return models.Payment{}, false, fmt.Errorf("db not available")
	}
	p, err := scanPayment(db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id=? LIMIT 1`, intentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, false, nil
		}
		return models.Payment{}, false, err
	}
	return p, true, nil
}

// ReconcileBooking writes the appointment and the ledger row, reserves the slot and
// attaches services in one transaction. A duplicate intent id rolls everything back and
// returns domain.ErrAlreadyReconciled.
func (r PaymentRepository) ReconcileBooking(ctx context.Context, rec models.BookingRecord) (int64, error) {
	var appointmentID int64
	err := intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		a := rec.Appointment
		res, err := tx.ExecContext(ctx, `
			INSERT INTO appointments
				(salon_id, barber_id, slot_id, customer_id, customer_name, contact_number,
				 payment_mode, payment_status, status, queue_position, estimated_wait_minutes,
				 service_duration_minutes, payment_intent_id)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			a.SalonID, a.BarberID, intdb.NullIfZero(a.SlotID), a.CustomerID, a.CustomerName, a.ContactNumber,
			a.PaymentMode, string(a.PaymentStatus), a.Status, a.QueuePosition, a.EstimatedWaitMinutes,
			a.ServiceDurationMinutes, intdb.NullIfEmpty(a.PaymentIntentID),
		)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		appointmentID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		p := rec.Payment
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payments
				(appointment_id, payment_intent_id, user_id, amount, tax, tip, total_amount, currency, status)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			appointmentID, p.PaymentIntentID, p.UserID, p.Amount, p.Tax, p.Tip, p.TotalAmount, p.Currency, string(p.Status),
		); err != nil {
			if intdb.IsDuplicateKey(err) {
				return domain.ErrAlreadyReconciled
			}
			return fmt.Errorf("create payment: %w", err)
		}

		// The ledger row goes first so a redelivered intent fails on its unique key
		// rather than on the slot its twin already reserved.
		if a.SlotID > 0 {
			res, err := tx.ExecContext(ctx,
				`UPDATE time_slots SET is_booked=1 WHERE id=? AND barber_id=? AND is_booked=0`,
				a.SlotID, a.BarberID)
			if err != nil {
				return fmt.Errorf("reserve slot: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return domain.ConflictError{Resource: "time slot", Msg: fmt.Sprintf("slot %d is no longer available", a.SlotID)}
			}
		}

		for _, s := range rec.Services {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO appointment_services (appointment_id, service_id, frequency, price, duration_minutes)
				SELECT ?, id, ?, price, duration_minutes FROM salon_services WHERE id=?`,
				appointmentID, s.Frequency, s.ServiceID)
			if err != nil {
				return fmt.Errorf("attach service %d: %w", s.ServiceID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return domain.NotFoundError{Resource: fmt.Sprintf("service %d", s.ServiceID)}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return appointmentID, nil
}

// ApplyRefund converges the ledger row for an intent onto a refund outcome. A missing row is
// created as a Failed placeholder first; the unique key turns a concurrent insert into an update.
// A linked appointment mirrors the payment status and is canceled only when the refund settled.
func (r PaymentRepository) ApplyRefund(ctx context.Context, upd models.RefundUpdate) (models.Payment, error) {
	intentID := strings.TrimSpace(upd.PaymentIntentID)
	if intentID == "" {
		return models.Payment{}, domain.ValidationError{Field: "payment_intent_id", Msg: "required"}
	}

	var out models.Payment
	err := intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (payment_intent_id, total_amount, currency, status) VALUES (?,?,?,?)`,
			intentID, upd.Amount, upd.Currency, string(models.PaymentFailed),
		); err != nil && !intdb.IsDuplicateKey(err) {
			return fmt.Errorf("create placeholder payment: %w", err)
		}

		// A late "pending" report must not reopen a refund that already settled.
		if _, err := tx.ExecContext(ctx, `
			UPDATE payments
			SET status=?,
			    refund_id=COALESCE(?, refund_id),
			    refund_reason=COALESCE(?, refund_reason),
			    refunded_at=COALESCE(?, refunded_at)
			WHERE payment_intent_id=? AND NOT (status=? AND ?=?)`,
			string(upd.Status),
			intdb.NullIfEmpty(upd.RefundID),
			intdb.NullIfEmpty(upd.Reason),
			upd.RefundedAt,
			intentID,
			string(models.PaymentRefunded), string(upd.Status), string(models.PaymentProcessing),
		); err != nil {
			return fmt.Errorf("update payment refund: %w", err)
		}

		p, err := scanPayment(tx.QueryRowContext(ctx,
			`SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id=? LIMIT 1`, intentID))
		if err != nil {
			return fmt.Errorf("reload payment: %w", err)
		}

		if p.AppointmentID > 0 {
			if p.Status == models.PaymentRefunded {
				_, err = tx.ExecContext(ctx,
					`UPDATE appointments SET payment_status=?, status=?, canceled_at=NOW() WHERE id=?`,
					string(p.Status), models.AppointmentCanceled, p.AppointmentID)
			} else {
				_, err = tx.ExecContext(ctx,
					`UPDATE appointments SET payment_status=? WHERE id=?`,
					string(p.Status), p.AppointmentID)
			}
			if err != nil {
				return fmt.Errorf("update appointment %d: %w", p.AppointmentID, err)
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return models.Payment{}, err
	}
	return out, nil
}

// MarkDisputed flags the ledger row; found is false when the intent has no row.
func (r PaymentRepository) MarkDisputed(ctx context.Context, intentID string) (bool, error) {
	db := r.db()
	if db == nil {
		return false, fmt.Errorf("db not available")
	}
	res, err := db.ExecContext(ctx,
		`UPDATE payments SET status=? WHERE payment_intent_id=?`,
		string(models.PaymentDisputed), intentID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetReceiptURL stores the processor receipt link on the ledger row.
func (r PaymentRepository) SetReceiptURL(ctx context.Context, intentID, url string) error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db not available")
	}
	_, err := db.ExecContext(ctx,
		`UPDATE payments SET receipt_url=? WHERE payment_intent_id=?`,
		intdb.NullIfEmpty(url), intentID)
	return err
}
