package services

import (
	"context"
	"fmt"
	"sync"

	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"
)

type fakeGate struct {
	enabled bool
	err     error
}

func (g fakeGate) IsOnlinePaymentEnabled(ctx context.Context) (bool, error) {
	return g.enabled, g.err
}

type fakeSettingsStore struct {
	values map[string]string
	err    error
}

func (f fakeSettingsStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

type fakeCatalog struct {
	barbers  map[int64]models.Barber
	services map[int64]models.SalonService
	slots    map[int64]models.TimeSlot
}

func (c fakeCatalog) GetBarber(ctx context.Context, id int64) (models.Barber, error) {
	b, ok := c.barbers[id]
	if !ok {
		return models.Barber{}, domain.NotFoundError{Resource: "barber"}
	}
	return b, nil
}

func (c fakeCatalog) GetServices(ctx context.Context, ids []int64) (map[int64]models.SalonService, error) {
	out := map[int64]models.SalonService{}
	for _, id := range ids {
		if svc, ok := c.services[id]; ok {
			out[id] = svc
		}
	}
	return out, nil
}

func (c fakeCatalog) GetSlot(ctx context.Context, id int64) (models.TimeSlot, error) {
	s, ok := c.slots[id]
	if !ok {
		return models.TimeSlot{}, domain.NotFoundError{Resource: "time slot"}
	}
	return s, nil
}

type createCall struct {
	amount         int64
	currency       string
	metadata       map[string]string
	idempotencyKey string
}

type fakeProcessor struct {
	mu sync.Mutex

	createErr error
	creates   []createCall

	event     models.ProcessorEvent
	verifyErr error

	refundStatus string
	refundErr    error
	refunds      []string

	charge    models.ChargeInfo
	chargeErr error
}

func (p *fakeProcessor) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string, idempotencyKey string) (models.IntentHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return models.IntentHandle{}, p.createErr
	}
	p.creates = append(p.creates, createCall{amount: amountMinor, currency: currency, metadata: metadata, idempotencyKey: idempotencyKey})
	n := len(p.creates)
	return models.IntentHandle{ID: fmt.Sprintf("pi_%d", n), ClientSecret: fmt.Sprintf("pi_%d_secret", n)}, nil
}

func (p *fakeProcessor) VerifyWebhook(rawBody []byte, signature string) (models.ProcessorEvent, error) {
	if p.verifyErr != nil {
		return models.ProcessorEvent{}, p.verifyErr
	}
	if signature != "valid" {
		return models.ProcessorEvent{}, domain.InvalidSignatureError{}
	}
	return p.event, nil
}

func (p *fakeProcessor) CreateRefund(ctx context.Context, intentID, reason string) (models.RefundData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunds = append(p.refunds, intentID+":"+reason)
	if p.refundErr != nil {
		return models.RefundData{}, p.refundErr
	}
	status := p.refundStatus
	if status == "" {
		status = models.RefundSucceeded
	}
	return models.RefundData{
		ID:              fmt.Sprintf("re_%d", len(p.refunds)),
		Status:          status,
		PaymentIntentID: intentID,
		Amount:          2000,
		Currency:        "usd",
	}, nil
}

func (p *fakeProcessor) RetrieveCharge(ctx context.Context, chargeID string) (models.ChargeInfo, error) {
	return p.charge, p.chargeErr
}

// fakeLedger keeps payments and appointments in memory with the same
// all-or-nothing reconcile behavior as the SQL repository.
type fakeLedger struct {
	mu           sync.Mutex
	payments     map[string]models.Payment
	appointments map[int64]models.Appointment
	services     map[int64][]models.RequestedService
	bookedSlots  map[int64]bool
	catalog      map[int64]models.SalonService
	nextID       int64
	findErr      error
	receipts     map[string]string
}

func newFakeLedger(catalog map[int64]models.SalonService) *fakeLedger {
	return &fakeLedger{
		payments:     map[string]models.Payment{},
		appointments: map[int64]models.Appointment{},
		services:     map[int64][]models.RequestedService{},
		bookedSlots:  map[int64]bool{},
		catalog:      catalog,
		receipts:     map[string]string{},
	}
}

func (l *fakeLedger) FindByIntentID(ctx context.Context, intentID string) (models.Payment, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.findErr != nil {
		return models.Payment{}, false, l.findErr
	}
	p, ok := l.payments[intentID]
	return p, ok, nil
}

func (l *fakeLedger) ReconcileBooking(ctx context.Context, rec models.BookingRecord) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.payments[rec.Payment.PaymentIntentID]; exists {
		return 0, domain.ErrAlreadyReconciled
	}
	if rec.Appointment.SlotID > 0 && l.bookedSlots[rec.Appointment.SlotID] {
		return 0, domain.ConflictError{Resource: "time slot"}
	}
	for _, svc := range rec.Services {
		if _, ok := l.catalog[svc.ServiceID]; !ok {
			return 0, domain.NotFoundError{Resource: fmt.Sprintf("service %d", svc.ServiceID)}
		}
	}

	l.nextID++
	appt := rec.Appointment
	appt.ID = l.nextID
	l.appointments[appt.ID] = appt
	l.services[appt.ID] = rec.Services
	if appt.SlotID > 0 {
		l.bookedSlots[appt.SlotID] = true
	}
	p := rec.Payment
	p.AppointmentID = appt.ID
	l.payments[p.PaymentIntentID] = p
	return appt.ID, nil
}

func (l *fakeLedger) ApplyRefund(ctx context.Context, upd models.RefundUpdate) (models.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[upd.PaymentIntentID]
	if !ok {
		p = models.Payment{PaymentIntentID: upd.PaymentIntentID, TotalAmount: upd.Amount, Currency: upd.Currency, Status: models.PaymentFailed}
	}
	if !(p.Status == models.PaymentRefunded && upd.Status == models.PaymentProcessing) {
		p.Status = upd.Status
	}
	if upd.RefundID != "" {
		p.RefundID = upd.RefundID
	}
	if upd.Reason != "" {
		p.RefundReason = upd.Reason
	}
	if upd.RefundedAt != nil {
		p.RefundedAt = upd.RefundedAt
	}
	l.payments[p.PaymentIntentID] = p

	if appt, ok := l.appointments[p.AppointmentID]; ok {
		appt.PaymentStatus = p.Status
		if p.Status == models.PaymentRefunded {
			appt.Status = models.AppointmentCanceled
			appt.CanceledAt = upd.RefundedAt
		}
		l.appointments[appt.ID] = appt
	}
	return p, nil
}

func (l *fakeLedger) MarkDisputed(ctx context.Context, intentID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[intentID]
	if !ok {
		return false, nil
	}
	p.Status = models.PaymentDisputed
	l.payments[intentID] = p
	return true, nil
}

func (l *fakeLedger) SetReceiptURL(ctx context.Context, intentID, url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receipts[intentID] = url
	return nil
}

func (l *fakeLedger) appointmentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.appointments)
}

type fakeAppointments struct {
	ledger    *fakeLedger
	queue     []models.QueueEntry
	detailErr error
}

func (a fakeAppointments) GetDetail(ctx context.Context, id int64) (models.AppointmentDetail, error) {
	if a.detailErr != nil {
		return models.AppointmentDetail{}, a.detailErr
	}
	if a.ledger == nil {
		return models.AppointmentDetail{Appointment: models.Appointment{ID: id}}, nil
	}
	a.ledger.mu.Lock()
	defer a.ledger.mu.Unlock()
	appt, ok := a.ledger.appointments[id]
	if !ok {
		return models.AppointmentDetail{}, domain.NotFoundError{Resource: "appointment"}
	}
	return models.AppointmentDetail{Appointment: appt, BarberName: "Sam"}, nil
}

func (a fakeAppointments) ListActiveQueue(ctx context.Context, barberID int64) ([]models.QueueEntry, error) {
	return a.queue, nil
}

type fakeContacts struct {
	contacts map[int64]models.UserContact
}

func (c fakeContacts) GetContact(ctx context.Context, userID int64) (models.UserContact, error) {
	v, ok := c.contacts[userID]
	if !ok {
		return models.UserContact{}, domain.NotFoundError{Resource: "user"}
	}
	return v, nil
}

type sentEmail struct {
	to, subject, templateID string
	data                    map[string]any
}

type fakeMailer struct {
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendEmail(ctx context.Context, to, subject, templateID string, data map[string]any) error {
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, templateID: templateID, data: data})
	return m.err
}

type fakeNotifier struct {
	dispatched []int64
	boards     []models.BoardSnapshot
	err        error
}

func (n *fakeNotifier) SendAppointmentNotifications(ctx context.Context, appt models.AppointmentDetail, name, phone string, userID, salonID int64) error {
	n.dispatched = append(n.dispatched, appt.ID)
	return n.err
}

func (n *fakeNotifier) BroadcastBoardUpdate(ctx context.Context, snapshot models.BoardSnapshot) error {
	n.boards = append(n.boards, snapshot)
	return n.err
}

type fakeEvents struct {
	received []string
	handled  map[string]string
}

func (e *fakeEvents) RecordReceived(ctx context.Context, ev models.ProcessorEvent) error {
	e.received = append(e.received, ev.ID)
	return nil
}

func (e *fakeEvents) MarkHandled(ctx context.Context, eventID, status, errMsg string) error {
	if e.handled == nil {
		e.handled = map[string]string{}
	}
	e.handled[eventID] = status
	return nil
}
