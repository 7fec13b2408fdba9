package db

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS app_settings (
	setting_key VARCHAR(100) PRIMARY KEY,
	setting_value VARCHAR(255) NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL DEFAULT '',
	email VARCHAR(255) NOT NULL DEFAULT '',
	phone VARCHAR(100) NOT NULL DEFAULT '',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS barbers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	salon_id BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL DEFAULT '',
	category VARCHAR(50) NOT NULL DEFAULT '',
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	KEY idx_salon (salon_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS salon_services (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL DEFAULT '',
	duration_minutes INT NOT NULL DEFAULT 0,
	price DECIMAL(12,2) NOT NULL DEFAULT 0
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS time_slots (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	barber_id BIGINT NOT NULL,
	slot_date DATE NOT NULL,
	start_time TIME NOT NULL,
	end_time TIME NOT NULL,
	is_booked TINYINT(1) NOT NULL DEFAULT 0,
	KEY idx_barber_date (barber_id, slot_date)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS appointments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	salon_id BIGINT NOT NULL,
	barber_id BIGINT NOT NULL,
	slot_id BIGINT NULL,
	customer_id BIGINT NOT NULL DEFAULT 0,
	customer_name VARCHAR(255) NOT NULL DEFAULT '',
	contact_number VARCHAR(100) NOT NULL DEFAULT '',
	payment_mode VARCHAR(30) NOT NULL DEFAULT 'pay_in_person',
	payment_status VARCHAR(30) NOT NULL DEFAULT 'Pending',
	status VARCHAR(30) NOT NULL DEFAULT 'pending',
	queue_position INT NOT NULL DEFAULT 0,
	estimated_wait_minutes INT NOT NULL DEFAULT 0,
	service_duration_minutes INT NOT NULL DEFAULT 0,
	payment_intent_id VARCHAR(255) NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	canceled_at TIMESTAMP NULL,
	KEY idx_barber_status (barber_id, status),
	KEY idx_intent (payment_intent_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS appointment_services (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	appointment_id BIGINT NOT NULL,
	service_id BIGINT NOT NULL,
	frequency INT NOT NULL DEFAULT 1,
	price DECIMAL(12,2) NOT NULL DEFAULT 0,
	duration_minutes INT NOT NULL DEFAULT 0,
	UNIQUE KEY uniq_appointment_service (appointment_id, service_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS payments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	appointment_id BIGINT NULL,
	payment_intent_id VARCHAR(255) NOT NULL,
	user_id BIGINT NOT NULL DEFAULT 0,
	amount DECIMAL(12,2) NOT NULL DEFAULT 0,
	tax DECIMAL(12,2) NOT NULL DEFAULT 0,
	tip DECIMAL(12,2) NOT NULL DEFAULT 0,
	total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
	currency VARCHAR(10) NOT NULL DEFAULT 'usd',
	status VARCHAR(30) NOT NULL DEFAULT 'Pending',
	refund_id VARCHAR(255) NULL,
	refund_reason VARCHAR(255) NULL,
	refunded_at TIMESTAMP NULL,
	receipt_url VARCHAR(512) NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_payment_intent (payment_intent_id),
	KEY idx_appointment (appointment_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS webhook_events (
	event_id VARCHAR(255) PRIMARY KEY,
	event_type VARCHAR(100) NOT NULL,
	payment_intent_id VARCHAR(255) NULL,
	status VARCHAR(30) NOT NULL DEFAULT 'received',
	error_message VARCHAR(1000) NULL,
	received_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	processed_at TIMESTAMP NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// EnsureSchema creates the tables used by the payment flow when they are missing.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return fmt.Errorf("db not available")
	}
	for _, ddl := range schema {
		if _, err := conn.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}
