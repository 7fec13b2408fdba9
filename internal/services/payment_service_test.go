package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"salonbackend/internal/domain"
	"salonbackend/internal/domain/models"

	"github.com/shopspring/decimal"
)

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		barbers: map[int64]models.Barber{
			1: {ID: 1, SalonID: 10, Name: "Sam", Category: "walk_in", IsActive: true},
			2: {ID: 2, SalonID: 10, Name: "Ana", Category: "appointment", IsActive: true},
			3: {ID: 3, SalonID: 10, Name: "Off", Category: "walk_in", IsActive: false},
		},
		services: map[int64]models.SalonService{
			100: {ID: 100, Name: "Cut", DurationMinutes: 30, Price: decimal.RequireFromString("15")},
			101: {ID: 101, Name: "Beard", DurationMinutes: 15, Price: decimal.RequireFromString("5")},
		},
		slots: map[int64]models.TimeSlot{
			500: {ID: 500, BarberID: 2, Date: "2026-10-20", StartTime: "10:00:00", EndTime: "11:00:00"},
			501: {ID: 501, BarberID: 2, Date: "2026-10-20", StartTime: "11:00:00", EndTime: "11:30:00", IsBooked: true},
			502: {ID: 502, BarberID: 2, Date: "2026-10-20", StartTime: "12:00:00", EndTime: "12:30:00"},
		},
	}
}

func walkInBooking() *models.PendingBooking {
	return &models.PendingBooking{
		BarberID:      1,
		SalonID:       10,
		CustomerName:  " Jo ",
		ContactNumber: "555-0100",
		Services: []models.RequestedService{
			{ServiceID: 100, Frequency: 1},
			{ServiceID: 101},
			{ServiceID: 100, Frequency: 1},
		},
	}
}

func newPaymentService(proc *fakeProcessor, queue []models.QueueEntry) PaymentService {
	catalog := testCatalog()
	return PaymentService{
		Gate:      fakeGate{enabled: true},
		Catalog:   catalog,
		Resolver:  AvailabilityService{Catalog: catalog, Appointments: fakeAppointments{queue: queue}},
		Processor: proc,
		Ledger:    newFakeLedger(catalog.services),
		Currency:  "USD",
		RequestID: "req-test",
	}
}

func TestCreatePaymentIntentWalkIn(t *testing.T) {
	proc := &fakeProcessor{}
	queue := []models.QueueEntry{
		{AppointmentID: 7, Position: 1, ServiceDurationMinutes: 20},
		{AppointmentID: 8, Position: 2, ServiceDurationMinutes: 25},
	}
	svc := newPaymentService(proc, queue)

	handle, err := svc.CreatePaymentIntent(context.Background(), CreateIntentRequest{
		UserID:      42,
		TotalAmount: dec("20.00"),
		Tip:         dec("3"),
		Appointment: walkInBooking(),
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if handle.ID == "" || handle.ClientSecret == "" {
		t.Fatalf("expected intent handle, got %+v", handle)
	}
	if len(proc.creates) != 1 {
		t.Fatalf("expected one processor call, got %d", len(proc.creates))
	}
	call := proc.creates[0]
	if call.amount != 2000 {
		t.Fatalf("expected 2000 minor units, got %d", call.amount)
	}
	if call.currency != "usd" {
		t.Fatalf("expected lower-case currency, got %q", call.currency)
	}
	if call.idempotencyKey == "" {
		t.Fatalf("expected idempotency key")
	}
	if call.metadata[models.MetaTip] != "3" || call.metadata[models.MetaUserID] != "42" {
		t.Fatalf("unexpected metadata %+v", call.metadata)
	}

	b, err := models.DecodePendingBooking(call.metadata)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if b.CustomerName != "Jo" || b.PaymentMode != models.PaymentModeOnline || b.UserID != 42 {
		t.Fatalf("unexpected booking %+v", b)
	}
	if b.QueuePosition != 3 || b.EstimatedWaitMinutes != 45 {
		t.Fatalf("expected position 3 wait 45, got %d/%d", b.QueuePosition, b.EstimatedWaitMinutes)
	}
	// Cut twice (60) plus beard once (15).
	if b.TotalServiceDuration != 75 {
		t.Fatalf("expected 75 minutes, got %d", b.TotalServiceDuration)
	}
	want := []models.RequestedService{{ServiceID: 100, Frequency: 2}, {ServiceID: 101, Frequency: 1}}
	if !reflect.DeepEqual(b.Services, want) {
		t.Fatalf("expected deduped services %+v, got %+v", want, b.Services)
	}
	if !b.TotalAmount.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("expected total 20, got %s", b.TotalAmount)
	}
}

func TestCreatePaymentIntentDistinctIntents(t *testing.T) {
	proc := &fakeProcessor{}
	svc := newPaymentService(proc, nil)
	req := CreateIntentRequest{UserID: 42, TotalAmount: dec("20"), Tip: dec("0"), Appointment: walkInBooking()}

	first, err := svc.CreatePaymentIntent(context.Background(), req)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.CreatePaymentIntent(context.Background(), req)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("intent id reused: %s", first.ID)
	}
	if proc.creates[0].idempotencyKey == proc.creates[1].idempotencyKey {
		t.Fatalf("idempotency key reused across checkouts")
	}
}

func TestCreatePaymentIntentSlotted(t *testing.T) {
	proc := &fakeProcessor{}
	svc := newPaymentService(proc, nil)
	booking := &models.PendingBooking{
		BarberID: 2, SalonID: 10, CustomerName: "Jo", ContactNumber: "555", SlotID: 500,
		Services: []models.RequestedService{{ServiceID: 100, Frequency: 1}},
	}

	if _, err := svc.CreatePaymentIntent(context.Background(), CreateIntentRequest{
		UserID: 42, TotalAmount: dec("15.555"), Tip: dec("0"), Appointment: booking,
	}); err != nil {
		t.Fatalf("create intent: %v", err)
	}
	call := proc.creates[0]
	if call.amount != 1556 {
		t.Fatalf("expected rounded 1556, got %d", call.amount)
	}
	b, err := models.DecodePendingBooking(call.metadata)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if b.SlotID != 500 || b.SlotDate != "2026-10-20" || b.SlotStart != "10:00:00" || b.QueuePosition != 0 {
		t.Fatalf("unexpected slot assignment %+v", b)
	}
}

func TestCreatePaymentIntentPreconditions(t *testing.T) {
	cases := []struct {
		name   string
		gate   fakeGate
		req    CreateIntentRequest
		check  func(error) bool
		fields []string
	}{
		{
			name:  "disabled",
			gate:  fakeGate{enabled: false},
			req:   CreateIntentRequest{},
			check: domain.IsPaymentsDisabled,
		},
		{
			name:   "missing required",
			gate:   fakeGate{enabled: true},
			req:    CreateIntentRequest{UserID: 42, TotalAmount: dec("20")},
			check:  domain.IsValidation,
			fields: []string{"appointmentData", "validatedTip"},
		},
		{
			name: "missing payload fields",
			gate: fakeGate{enabled: true},
			req: CreateIntentRequest{UserID: 42, TotalAmount: dec("20"), Tip: dec("0"),
				Appointment: &models.PendingBooking{BarberID: 1}},
			check:  domain.IsValidation,
			fields: []string{"name", "phone", "salon_id", "services"},
		},
		{
			name: "unknown barber",
			gate: fakeGate{enabled: true},
			req: CreateIntentRequest{UserID: 42, TotalAmount: dec("20"), Tip: dec("0"),
				Appointment: &models.PendingBooking{BarberID: 99, SalonID: 10, CustomerName: "Jo", ContactNumber: "1",
					Services: []models.RequestedService{{ServiceID: 100}}}},
			check: domain.IsNotFound,
		},
		{
			name: "inactive barber",
			gate: fakeGate{enabled: true},
			req: CreateIntentRequest{UserID: 42, TotalAmount: dec("20"), Tip: dec("0"),
				Appointment: &models.PendingBooking{BarberID: 3, SalonID: 10, CustomerName: "Jo", ContactNumber: "1",
					Services: []models.RequestedService{{ServiceID: 100}}}},
			check: domain.IsNotFound,
		},
		{
			name: "slot required",
			gate: fakeGate{enabled: true},
			req: CreateIntentRequest{UserID: 42, TotalAmount: dec("20"), Tip: dec("0"),
				Appointment: &models.PendingBooking{BarberID: 2, SalonID: 10, CustomerName: "Jo", ContactNumber: "1",
					Services: []models.RequestedService{{ServiceID: 100}}}},
			check: domain.IsValidation,
		},
		{
			name: "unknown service",
			gate: fakeGate{enabled: true},
			req: CreateIntentRequest{UserID: 42, TotalAmount: dec("20"), Tip: dec("0"),
				Appointment: &models.PendingBooking{BarberID: 1, SalonID: 10, CustomerName: "Jo", ContactNumber: "1",
					Services: []models.RequestedService{{ServiceID: 999}}}},
			check: domain.IsNotFound,
		},
		{
			name: "slot taken",
			gate: fakeGate{enabled: true},
			req: CreateIntentRequest{UserID: 42, TotalAmount: dec("20"), Tip: dec("0"),
				Appointment: &models.PendingBooking{BarberID: 2, SalonID: 10, CustomerName: "Jo", ContactNumber: "1", SlotID: 501,
					Services: []models.RequestedService{{ServiceID: 100}}}},
			check: domain.IsConflict,
		},
		{
			name: "slot too short",
			gate: fakeGate{enabled: true},
			req: CreateIntentRequest{UserID: 42, TotalAmount: dec("20"), Tip: dec("0"),
				Appointment: &models.PendingBooking{BarberID: 2, SalonID: 10, CustomerName: "Jo", ContactNumber: "1", SlotID: 502,
					Services: []models.RequestedService{{ServiceID: 100, Frequency: 2}}}},
			check: domain.IsValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proc := &fakeProcessor{}
			svc := newPaymentService(proc, nil)
			svc.Gate = tc.gate
			_, err := svc.CreatePaymentIntent(context.Background(), tc.req)
			if !tc.check(err) {
				t.Fatalf("unexpected error type: %v", err)
			}
			if tc.fields != nil {
				var verr domain.ValidationError
				if !errors.As(err, &verr) || !reflect.DeepEqual(verr.Fields, tc.fields) {
					t.Fatalf("expected fields %v, got %v", tc.fields, err)
				}
			}
			if len(proc.creates) != 0 {
				t.Fatalf("processor must not be called")
			}
		})
	}
}

func TestCreatePaymentIntentProcessorFailure(t *testing.T) {
	proc := &fakeProcessor{createErr: errors.New("card network down")}
	svc := newPaymentService(proc, nil)
	_, err := svc.CreatePaymentIntent(context.Background(), CreateIntentRequest{
		UserID: 42, TotalAmount: dec("20"), Tip: dec("0"), Appointment: walkInBooking(),
	})
	if !domain.IsProcessor(err) {
		t.Fatalf("expected processor error, got %v", err)
	}
}

func TestCreatePaymentIntentGateError(t *testing.T) {
	svc := newPaymentService(&fakeProcessor{}, nil)
	svc.Gate = SettingsService{Store: fakeSettingsStore{err: errors.New("db down")}}
	_, err := svc.CreatePaymentIntent(context.Background(), CreateIntentRequest{})
	if !domain.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestGetStatus(t *testing.T) {
	svc := newPaymentService(&fakeProcessor{}, nil)
	ledger := svc.Ledger.(*fakeLedger)
	ledger.payments["pi_done"] = models.Payment{PaymentIntentID: "pi_done", Status: models.PaymentRefunded}

	status, err := svc.GetStatus(context.Background(), "pi_unknown")
	if err != nil || status != models.PaymentPending {
		t.Fatalf("expected Pending for unknown intent, got %q %v", status, err)
	}
	status, err = svc.GetStatus(context.Background(), "pi_done")
	if err != nil || status != models.PaymentRefunded {
		t.Fatalf("expected Refunded, got %q %v", status, err)
	}
	if _, err := svc.GetStatus(context.Background(), " "); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}
}

func TestSettingsServiceGate(t *testing.T) {
	cases := []struct {
		values map[string]string
		def    bool
		want   bool
	}{
		{values: map[string]string{SettingOnlinePayment: "true"}, want: true},
		{values: map[string]string{SettingOnlinePayment: " Enabled "}, want: true},
		{values: map[string]string{SettingOnlinePayment: "0"}, def: true, want: false},
		{values: map[string]string{}, def: true, want: true},
		{values: map[string]string{}, def: false, want: false},
	}
	for _, tc := range cases {
		svc := SettingsService{Store: fakeSettingsStore{values: tc.values}, Default: tc.def}
		got, err := svc.IsOnlinePaymentEnabled(context.Background())
		if err != nil {
			t.Fatalf("gate error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("values=%v default=%v: expected %v, got %v", tc.values, tc.def, tc.want, got)
		}
	}
}
