package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "salonbackend/internal/config"
	intdb "salonbackend/internal/db"
	router "salonbackend/internal/http"
	"salonbackend/internal/http/handlers"
	"salonbackend/internal/notify"
	"salonbackend/internal/processor"
	"salonbackend/internal/repositories"
	"salonbackend/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	if env.StripeSecretKey == "" || env.StripeWebhookSecret == "" {
		log.Println("warning: STRIPE_SECRET_KEY or STRIPE_WEBHOOK_SECRET is empty; checkout and webhooks will fail")
	}

	db := intconfig.ConnectDB(env.DBDSN)
	defer intconfig.CloseDB()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := intdb.EnsureSchema(schemaCtx, db); err != nil {
		cancelSchema()
		log.Fatalf("failed to ensure schema: %v", err)
	}
	cancelSchema()

	stripe := processor.NewStripe(env.StripeSecretKey, env.StripeWebhookSecret)
	ledger := repositories.PaymentRepository{DB: db}
	catalog := repositories.CatalogRepository{DB: db}
	appointments := repositories.AppointmentRepository{DB: db}
	refunds := services.RefundService{Processor: stripe, Ledger: ledger, Currency: env.PaymentCurrency}

	payments := handlers.PaymentHandler{
		Payments: services.PaymentService{
			Gate:      services.SettingsService{Store: repositories.SettingsRepository{DB: db}, Default: env.OnlinePaymentDefault},
			Catalog:   catalog,
			Resolver:  services.AvailabilityService{Catalog: catalog, Appointments: appointments},
			Processor: stripe,
			Ledger:    ledger,
			Currency:  env.PaymentCurrency,
		},
		Webhooks: services.WebhookService{
			Processor:              stripe,
			Ledger:                 ledger,
			Appointments:           appointments,
			Catalog:                catalog,
			Contacts:               repositories.UserRepository{DB: db},
			Refunds:                refunds,
			Mailer:                 notify.NewEmailClient(env.EmailAPIURL, env.EmailAPIKey, env.EmailFrom),
			Notifier:               notify.NewDispatchClient(env.DispatchAPIURL, env.BoardAPIURL, env.NotifyAPIKey),
			Events:                 repositories.WebhookEventRepository{DB: db},
			Currency:               env.PaymentCurrency,
			ConfirmationTemplateID: env.EmailConfirmationTemplateID,
		},
		Refunds: refunds,
	}

	r := router.NewRouter(env, payments)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
