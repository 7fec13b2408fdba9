package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"salonbackend/internal/domain/models"
	"salonbackend/internal/http/middleware"
	"salonbackend/internal/services"
	"salonbackend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MaxWebhookBody caps the raw webhook payload read before signature verification.
const MaxWebhookBody = 64 << 10

const signatureHeader = "Stripe-Signature"

// PaymentHandler serves checkout, webhook and status polling. The services are
// templates; each request gets a copy stamped with its request id.
type PaymentHandler struct {
	Payments services.PaymentService
	Webhooks services.WebhookService
	Refunds  services.RefundService
}

type serviceLine struct {
	ServiceID int64 `json:"service_id"`
	Frequency int   `json:"frequency"`
}

type appointmentPayload struct {
	BarberID         int64           `json:"barber_id"`
	SalonID          int64           `json:"salon_id"`
	CustomerID       int64           `json:"customer_id"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	Email            string          `json:"email"`
	Services         []serviceLine   `json:"services"`
	SelectedServices []int64         `json:"selectedServices"`
	SlotID           int64           `json:"slot_id"`
	Tax              decimal.Decimal `json:"tax"`
}

type refundRequest struct {
	Reason string `json:"reason"`
}

type createPaymentRequest struct {
	TotalAmount     *decimal.Decimal    `json:"totalAmount"`
	ValidatedTip    *decimal.Decimal    `json:"validatedTip"`
	UserID          int64               `json:"user_id"`
	AppointmentData *appointmentPayload `json:"appointmentData"`
}

func (p appointmentPayload) toPendingBooking() *models.PendingBooking {
	b := &models.PendingBooking{
		BarberID:      p.BarberID,
		SalonID:       p.SalonID,
		CustomerID:    p.CustomerID,
		CustomerName:  p.Name,
		ContactNumber: p.Phone,
		Email:         p.Email,
		SlotID:        p.SlotID,
		Tax:           p.Tax,
	}
	for _, s := range p.Services {
		b.Services = append(b.Services, models.RequestedService{ServiceID: s.ServiceID, Frequency: s.Frequency})
	}
	if len(b.Services) == 0 {
		for _, id := range p.SelectedServices {
			b.Services = append(b.Services, models.RequestedService{ServiceID: id, Frequency: 1})
		}
	}
	return b
}

// CreatePaymentIntent handles POST /api/payment/create.
func (h PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req createPaymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	userID := req.UserID
	if rc, ok := middleware.GetRequestContext(c); ok && rc.UserID > 0 {
		userID = int64(rc.UserID)
	}

	in := services.CreateIntentRequest{
		UserID:      userID,
		TotalAmount: req.TotalAmount,
		Tip:         req.ValidatedTip,
	}
	if req.AppointmentData != nil {
		in.Appointment = req.AppointmentData.toPendingBooking()
	}

	svc := h.Payments
	svc.RequestID = middleware.GetRequestID(c)
	handle, err := svc.CreatePaymentIntent(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, handle)
}

// Webhook handles POST /api/payment/webhook. Only an unverifiable payload is rejected;
// everything after verification is acknowledged so the processor does not redeliver.
func (h PaymentHandler) Webhook(c *gin.Context) {
	reqID := middleware.GetRequestID(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBody)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook payload too large", nil)
			return
		}
		respondError(c, http.StatusBadRequest, "validation_error", "failed to read webhook body", nil)
		return
	}

	svc := h.Webhooks
	svc.RequestID = reqID
	outcome, err := svc.HandleWebhook(c.Request.Context(), raw, c.GetHeader(signatureHeader))
	if outcome == "" && err != nil {
		RespondDomainError(c, err)
		return
	}
	if err != nil {
		utils.LogEvent(reqID, "http", "webhook", "acknowledged with error: "+err.Error())
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}

// PaymentStatus handles GET /api/payment/status/:intentId.
func (h PaymentHandler) PaymentStatus(c *gin.Context) {
	intentID := strings.TrimSpace(c.Param("intentId"))
	svc := h.Payments
	svc.RequestID = middleware.GetRequestID(c)
	status, err := svc.GetStatus(c.Request.Context(), intentID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// RefundPayment handles POST /api/payment/refund/:intentId for salon operators.
func (h PaymentHandler) RefundPayment(c *gin.Context) {
	var req refundRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}

	svc := h.Refunds
	svc.RequestID = middleware.GetRequestID(c)
	res, err := svc.RefundSettled(c.Request.Context(), c.Param("intentId"), req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"refund_id": res.Refund.ID,
		"status":    res.Payment.Status,
		"reason":    res.Payment.RefundReason,
	})
}
