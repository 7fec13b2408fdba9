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

// SettingsRepository is the key/value store in app_settings.
type SettingsRepository struct {
	DB *sql.DB
}

func (r SettingsRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// GetSetting returns the raw value; found is false when the key has no row.
func (r SettingsRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	db := r.db()
	if db == nil {
		return "", false, fmt.Errorf("db not available")
	}
	var v string
	err := db.QueryRowContext(ctx,
		`SELECT setting_value FROM app_settings WHERE setting_key=? LIMIT 1`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(v), true, nil
}

// UserRepository reads customer contact data for notifications.
type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r UserRepository) GetContact(ctx context.Context, userID int64) (models.UserContact, error) {
	if userID <= 0 {
		return models.UserContact{}, domain.ValidationError{Field: "user_id", Msg: "invalid id"}
	}
	db := r.db()
	if db == nil {
		return models.UserContact{}, fmt.Errorf("db not available")
	}
	var u models.UserContact
	err := db.QueryRowContext(ctx,
		`SELECT id, COALESCE(name,''), COALESCE(email,''), COALESCE(phone,'') FROM users WHERE id=? LIMIT 1`,
		userID).Scan(&u.ID, &u.Name, &u.Email, &u.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserContact{}, domain.NotFoundError{Resource: "user", Err: err}
		}
		return models.UserContact{}, err
	}
	return u, nil
}
