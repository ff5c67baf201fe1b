package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mstgnz/qualpay/infra/config"
	"github.com/mstgnz/qualpay/qualpay"
	"github.com/mstgnz/qualpay/store"
)

func TestNormalizeSchedule(t *testing.T) {
	tests := []struct {
		name    string
		period  CyclePeriod
		length  int
		want    planSchedule
		wantErr bool
	}{
		{"one_week", PeriodWeeks, 1, planSchedule{frequency: qualpay.FrequencyWeekly}, false},
		{"two_weeks", PeriodWeeks, 2, planSchedule{frequency: qualpay.FrequencyBiWeekly}, false},
		{"six_weeks", PeriodWeeks, 6, planSchedule{frequency: qualpay.FrequencyWeekly, interval: 6}, false},
		{"one_month", PeriodMonths, 1, planSchedule{frequency: qualpay.FrequencyMonthly}, false},
		{"quarterly", PeriodMonths, 3, planSchedule{frequency: qualpay.FrequencyQuarterly}, false},
		{"six_months", PeriodMonths, 6, planSchedule{frequency: qualpay.FrequencyBiAnnually}, false},
		{"twelve_months", PeriodMonths, 12, planSchedule{frequency: qualpay.FrequencyAnnually}, false},
		{"two_months", PeriodMonths, 2, planSchedule{frequency: qualpay.FrequencyMonthly, interval: 2}, false},
		{"one_year", PeriodYears, 1, planSchedule{frequency: qualpay.FrequencyAnnually}, false},
		{"three_years", PeriodYears, 3, planSchedule{frequency: qualpay.FrequencyAnnually, interval: 3}, false},
		{"seven_days", PeriodDays, 7, planSchedule{frequency: qualpay.FrequencyWeekly}, false},
		{"fourteen_days", PeriodDays, 14, planSchedule{frequency: qualpay.FrequencyBiWeekly}, false},
		{"thirty_days", PeriodDays, 30, planSchedule{frequency: qualpay.FrequencyMonthly}, false},
		{"ninety_days", PeriodDays, 90, planSchedule{frequency: qualpay.FrequencyQuarterly}, false},
		{"ten_days", PeriodDays, 10, planSchedule{}, true},
		{"zero_length", PeriodMonths, 0, planSchedule{}, true},
		{"negative_length", PeriodWeeks, -1, planSchedule{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeSchedule(tt.period, tt.length)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeSchedule() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("normalizeSchedule() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFirstBillingDate(t *testing.T) {
	now := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		period CyclePeriod
		length int
		want   time.Time
	}{
		{"days", PeriodDays, 14, time.Date(2026, time.February, 14, 12, 0, 0, 0, time.UTC)},
		{"weeks", PeriodWeeks, 2, time.Date(2026, time.February, 14, 12, 0, 0, 0, time.UTC)},
		{"months", PeriodMonths, 1, time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)},
		{"years", PeriodYears, 1, time.Date(2027, time.January, 31, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstBillingDate(now, tt.period, tt.length); !got.Equal(tt.want) {
				t.Errorf("firstBillingDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func baseRecurringRequest() *RecurringRequest {
	return &RecurringRequest{
		OrderGUID:       "order-guid-42",
		PrimaryCurrency: "USD",
		OrderTotal:      29.99,
		Customer: Customer{
			ID:        "cust-1",
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
		},
		CyclePeriod: PeriodMonths,
		CycleLength: 1,
		TotalCycles: 12,
	}
}

func recurringSettings() config.Settings {
	return config.Settings{
		TransactionType:     config.TransactionSale,
		UseCustomerVault:    true,
		UseRecurringBilling: true,
	}
}

func TestProcessRecurringPayment(t *testing.T) {
	sub := &qualpay.Subscription{SubscriptionID: 4242}
	sub.TransactionResponse = &qualpay.TransactionResponse{TransactionID: "pg-setup"}
	sub.TransactionResponse.Code = qualpay.GatewayCodeSuccess
	sub.TransactionResponse.Message = "Success"

	spy := &spyGateway{
		customer:     &qualpay.VaultCustomer{CustomerID: "cust-1"},
		subscription: sub,
	}
	p := NewProcessor(recurringSettings(), spy, nil, nil)

	result, err := p.ProcessRecurringPayment(context.Background(), baseRecurringRequest())
	if err != nil {
		t.Fatalf("ProcessRecurringPayment() error: %v", err)
	}

	req := spy.subReq
	if req == nil {
		t.Fatal("subscription was not created")
	}
	if req.PlanDescription != "order-guid-42" {
		t.Errorf("plan description = %q, want the order guid", req.PlanDescription)
	}
	if req.PlanFrequency == nil || *req.PlanFrequency != qualpay.FrequencyMonthly {
		t.Errorf("plan frequency = %v", req.PlanFrequency)
	}
	// Twelve cycles total, one consumed by the setup charge.
	if req.PlanDuration != 11 {
		t.Errorf("plan duration = %d, want 11", req.PlanDuration)
	}
	if req.SetupAmount != 29.99 || req.RecurringAmount != 29.99 {
		t.Errorf("amounts = %v / %v", req.SetupAmount, req.RecurringAmount)
	}
	if req.CurrencyISOCode != qualpay.UsdNumericISOCode {
		t.Errorf("currency = %d", req.CurrencyISOCode)
	}

	wantStart := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	if req.DateStart != wantStart {
		t.Errorf("start date = %q, want %q", req.DateStart, wantStart)
	}

	if result.SubscriptionID != 4242 {
		t.Errorf("subscription id = %d", result.SubscriptionID)
	}
	if result.NewPaymentStatus != StatusPaid || result.CaptureTransactionID != "pg-setup" {
		t.Errorf("result = %+v", result)
	}
}

func TestProcessRecurringPayment_Unbounded(t *testing.T) {
	spy := &spyGateway{
		customer:     &qualpay.VaultCustomer{CustomerID: "cust-1"},
		subscription: &qualpay.Subscription{SubscriptionID: 4242},
	}
	p := NewProcessor(recurringSettings(), spy, nil, nil)

	req := baseRecurringRequest()
	req.TotalCycles = 0

	result, err := p.ProcessRecurringPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("ProcessRecurringPayment() error: %v", err)
	}
	if spy.subReq.PlanDuration != -1 {
		t.Errorf("plan duration = %d, want -1 for an open-ended plan", spy.subReq.PlanDuration)
	}
	// No setup charge in the response, so payment stays pending.
	if result.NewPaymentStatus != StatusPending {
		t.Errorf("status = %q, want %q", result.NewPaymentStatus, StatusPending)
	}
}

func TestProcessRecurringPayment_CreatesVaultCustomer(t *testing.T) {
	spy := &spyGateway{
		subscription: &qualpay.Subscription{SubscriptionID: 4242},
	}
	p := NewProcessor(recurringSettings(), spy, nil, nil)

	if _, err := p.ProcessRecurringPayment(context.Background(), baseRecurringRequest()); err != nil {
		t.Fatalf("ProcessRecurringPayment() error: %v", err)
	}
	if spy.createdCust == nil {
		t.Fatal("expected the vault customer to be created")
	}
	if spy.createdCust.CustomerID != "cust-1" || spy.createdCust.Email != "jane@example.com" {
		t.Errorf("vault customer = %+v", spy.createdCust)
	}
}

func TestProcessRecurringPayment_Guards(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RecurringRequest)
		config func(*config.Settings)
		want   error
	}{
		{
			name:   "disabled",
			mutate: func(*RecurringRequest) {},
			config: func(s *config.Settings) { s.UseRecurringBilling = false },
			want:   ErrRecurringDisabled,
		},
		{
			name:   "guest",
			mutate: func(r *RecurringRequest) { r.Customer.Guest = true },
			config: func(*config.Settings) {},
			want:   ErrGuestRecurring,
		},
		{
			name:   "currency",
			mutate: func(r *RecurringRequest) { r.PrimaryCurrency = "GBP" },
			config: func(*config.Settings) {},
			want:   ErrCurrencyNotSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyGateway{}
			settings := recurringSettings()
			tt.config(&settings)
			p := NewProcessor(settings, spy, nil, nil)

			req := baseRecurringRequest()
			tt.mutate(req)

			_, err := p.ProcessRecurringPayment(context.Background(), req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(spy.calls) != 0 {
				t.Errorf("gateway must not be called, got %v", spy.calls)
			}
		})
	}
}

func TestCancelRecurringPayment(t *testing.T) {
	spy := &spyGateway{}
	p := NewProcessor(recurringSettings(), spy, nil, nil)

	if err := p.CancelRecurringPayment(context.Background(), "cust-1", 4242); err != nil {
		t.Fatalf("CancelRecurringPayment() error: %v", err)
	}
	if spy.cancelledID != 4242 {
		t.Errorf("cancelled id = %d", spy.cancelledID)
	}
}

// spyRecorder captures recurring bookkeeping writes.
type spyRecorder struct {
	saved   *store.RecurringPayment
	updated store.RecurringStatus
	saveErr error
}

func (s *spyRecorder) SaveRecurringPayment(rec *store.RecurringPayment) error {
	s.saved = rec
	return s.saveErr
}

func (s *spyRecorder) UpdateRecurringStatus(_ int64, status store.RecurringStatus) error {
	s.updated = status
	return nil
}

func TestProcessRecurringPayment_SavesOrderLink(t *testing.T) {
	spy := &spyGateway{
		customer:     &qualpay.VaultCustomer{CustomerID: "cust-1"},
		subscription: &qualpay.Subscription{SubscriptionID: 4242},
	}
	recorder := &spyRecorder{}
	p := NewProcessor(recurringSettings(), spy, nil, recorder)

	if _, err := p.ProcessRecurringPayment(context.Background(), baseRecurringRequest()); err != nil {
		t.Fatalf("ProcessRecurringPayment() error: %v", err)
	}

	rec := recorder.saved
	if rec == nil {
		t.Fatal("expected the order link to be persisted")
	}
	if rec.OrderGUID != "order-guid-42" {
		t.Errorf("order guid = %q", rec.OrderGUID)
	}
	if rec.SubscriptionID != 4242 || rec.CustomerID != "cust-1" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Status != store.RecurringActive {
		t.Errorf("status = %q, want %q", rec.Status, store.RecurringActive)
	}
}

func TestProcessRecurringPayment_SaveFailureDoesNotFailOrder(t *testing.T) {
	spy := &spyGateway{
		customer:     &qualpay.VaultCustomer{CustomerID: "cust-1"},
		subscription: &qualpay.Subscription{SubscriptionID: 4242},
	}
	recorder := &spyRecorder{saveErr: errors.New("disk full")}
	p := NewProcessor(recurringSettings(), spy, nil, recorder)

	// The subscription already exists gateway-side; failing the order here
	// would double-charge on retry.
	result, err := p.ProcessRecurringPayment(context.Background(), baseRecurringRequest())
	if err != nil {
		t.Fatalf("ProcessRecurringPayment() error: %v", err)
	}
	if result.SubscriptionID != 4242 {
		t.Errorf("subscription id = %d", result.SubscriptionID)
	}
}

func TestCancelRecurringPayment_UpdatesStatus(t *testing.T) {
	spy := &spyGateway{}
	recorder := &spyRecorder{}
	p := NewProcessor(recurringSettings(), spy, nil, recorder)

	if err := p.CancelRecurringPayment(context.Background(), "cust-1", 4242); err != nil {
		t.Fatalf("CancelRecurringPayment() error: %v", err)
	}
	if recorder.updated != store.RecurringCancelled {
		t.Errorf("status = %q, want %q", recorder.updated, store.RecurringCancelled)
	}
}
