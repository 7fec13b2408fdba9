package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDSN string

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string

	// OnlinePaymentDefault is used when app_settings has no online_payment_enabled row.
	OnlinePaymentDefault bool

	JWTSecret string

	EmailAPIURL                 string
	EmailAPIKey                 string
	EmailFrom                   string
	EmailConfirmationTemplateID string

	DispatchAPIURL string
	BoardAPIURL    string
	NotifyAPIKey   string

	CORSAllowedOrigins []string
}

// LoadEnv reads process env, after merging an optional .env file.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env: %v", err)
	}

	return Env{
		AppAddr: getEnv("APP_ADDR", ":8080"),
		GinMode: getEnv("GIN_MODE", ""),

		DBDSN: getEnv("DB_DSN", buildDSN()),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PaymentCurrency:     strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),

		OnlinePaymentDefault: getEnvBool("ONLINE_PAYMENT_DEFAULT", false),

		JWTSecret: getEnv("JWT_SECRET", ""),

		EmailAPIURL:                 getEnv("EMAIL_API_URL", ""),
		EmailAPIKey:                 getEnv("EMAIL_API_KEY", ""),
		EmailFrom:                   getEnv("EMAIL_FROM", "no-reply@salon.local"),
		EmailConfirmationTemplateID: getEnv("EMAIL_CONFIRMATION_TEMPLATE_ID", "appointment-confirmation"),

		DispatchAPIURL: getEnv("DISPATCH_API_URL", ""),
		BoardAPIURL:    getEnv("BOARD_API_URL", ""),
		NotifyAPIKey:   getEnv("NOTIFY_API_KEY", ""),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func buildDSN() string {
	user := getEnv("DB_USER", "root")
	pass := getEnv("DB_PASSWORD", "")
	host := getEnv("DB_HOST", "127.0.0.1:3306")
	name := getEnv("DB_NAME", "salon_app")
	return user + ":" + pass + "@tcp(" + host + ")/" + name +
		"?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
