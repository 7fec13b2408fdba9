package services

import (
	"context"
	"strings"
)

// SettingOnlinePayment is the app_settings key switching online checkout on or off.
const SettingOnlinePayment = "online_payment_enabled"

// SettingsService is the configuration gate consulted before any payment flow starts.
type SettingsService struct {
	Store SettingsStore
	// Default applies when the setting row does not exist.
	Default bool
}

func (s SettingsService) IsOnlinePaymentEnabled(ctx context.Context) (bool, error) {
	v, found, err := s.Store.GetSetting(ctx, SettingOnlinePayment)
	if err != nil {
		return false, err
	}
	if !found {
		return s.Default, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on", "enabled":
		return true, nil
	default:
		return false, nil
	}
}
