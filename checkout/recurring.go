package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mstgnz/qualpay/infra/logger"
	"github.com/mstgnz/qualpay/qualpay"
	"github.com/mstgnz/qualpay/store"
)

// planSchedule is the normalized form of a host billing cycle: a Qualpay
// plan frequency plus an interval multiplier for cycles the named
// frequencies cannot express.
type planSchedule struct {
	frequency qualpay.PlanFrequency
	interval  int
}

// normalizeSchedule maps a host (period, length) cycle onto the gateway's
// plan vocabulary. Day cycles must be whole weeks or whole months; anything
// else cannot be represented and is rejected.
func normalizeSchedule(period CyclePeriod, length int) (planSchedule, error) {
	if length <= 0 {
		return planSchedule{}, fmt.Errorf("checkout: invalid cycle length %d", length)
	}

	switch period {
	case PeriodDays:
		switch {
		case length%7 == 0:
			return weeklySchedule(length / 7), nil
		case length%30 == 0:
			return monthlySchedule(length / 30), nil
		default:
			return planSchedule{}, fmt.Errorf("checkout: a %d day cycle is not a whole number of weeks or months", length)
		}
	case PeriodWeeks:
		return weeklySchedule(length), nil
	case PeriodMonths:
		return monthlySchedule(length), nil
	case PeriodYears:
		if length == 1 {
			return planSchedule{frequency: qualpay.FrequencyAnnually}, nil
		}
		return planSchedule{frequency: qualpay.FrequencyAnnually, interval: length}, nil
	default:
		return planSchedule{}, fmt.Errorf("checkout: unknown cycle period %d", period)
	}
}

func weeklySchedule(weeks int) planSchedule {
	switch weeks {
	case 1:
		return planSchedule{frequency: qualpay.FrequencyWeekly}
	case 2:
		return planSchedule{frequency: qualpay.FrequencyBiWeekly}
	default:
		return planSchedule{frequency: qualpay.FrequencyWeekly, interval: weeks}
	}
}

func monthlySchedule(months int) planSchedule {
	switch months {
	case 1:
		return planSchedule{frequency: qualpay.FrequencyMonthly}
	case 3:
		return planSchedule{frequency: qualpay.FrequencyQuarterly}
	case 6:
		return planSchedule{frequency: qualpay.FrequencyBiAnnually}
	case 12:
		return planSchedule{frequency: qualpay.FrequencyAnnually}
	default:
		return planSchedule{frequency: qualpay.FrequencyMonthly, interval: months}
	}
}

// firstBillingDate returns the first recurring charge date: the initial
// payment covers the current cycle, so billing starts one full cycle out.
func firstBillingDate(now time.Time, period CyclePeriod, length int) time.Time {
	switch period {
	case PeriodDays:
		return now.AddDate(0, 0, length)
	case PeriodWeeks:
		return now.AddDate(0, 0, 7*length)
	case PeriodMonths:
		return now.AddDate(0, length, 0)
	case PeriodYears:
		return now.AddDate(length, 0, 0)
	}
	return now
}

// ProcessRecurringPayment starts a subscription for the order. The order
// GUID doubles as the plan description so webhook notifications can be
// correlated back to the order.
func (p *Processor) ProcessRecurringPayment(ctx context.Context, req *RecurringRequest) (*Result, error) {
	if !p.settings.UseRecurringBilling {
		return nil, ErrRecurringDisabled
	}
	if req.Customer.Guest {
		return nil, ErrGuestRecurring
	}
	if !strings.EqualFold(req.PrimaryCurrency, "USD") {
		return nil, ErrCurrencyNotSupported
	}

	schedule, err := normalizeSchedule(req.CyclePeriod, req.CycleLength)
	if err != nil {
		return nil, err
	}

	if err := p.ensureVaultCustomer(ctx, req.Customer); err != nil {
		return nil, err
	}

	amount := round2(req.OrderTotal)
	frequency := schedule.frequency

	// Unbounded plans run until cancelled. The initial payment consumes
	// the first cycle, so the plan itself bills one cycle fewer.
	duration := req.TotalCycles - 1
	if req.TotalCycles <= 0 {
		duration = -1
	}

	sub := &qualpay.CreateSubscriptionRequest{
		CustomerID:      req.Customer.ID,
		PlanDescription: req.OrderGUID,
		PlanFrequency:   &frequency,
		PlanDuration:    duration,
		Interval:        schedule.interval,
		CurrencyISOCode: qualpay.UsdNumericISOCode,
		SetupAmount:     amount,
		RecurringAmount: amount,
		DateStart:       firstBillingDate(time.Now(), req.CyclePeriod, req.CycleLength).Format("2006-01-02"),
	}

	created, err := p.gateway.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}

	// Persist the order link so webhook notifications can be correlated.
	// The subscription already exists gateway-side; a bookkeeping failure
	// is logged rather than failing the order and risking a double charge.
	if p.records != nil {
		err := p.records.SaveRecurringPayment(&store.RecurringPayment{
			OrderGUID:      req.OrderGUID,
			SubscriptionID: created.SubscriptionID,
			CustomerID:     req.Customer.ID,
			Status:         store.RecurringActive,
		})
		if err != nil {
			logger.Error("failed to record recurring payment", err, logger.LogContext{
				OrderID: req.OrderGUID,
				Fields:  map[string]any{"subscription_id": created.SubscriptionID},
			})
		}
	}

	result := &Result{
		SubscriptionID:   created.SubscriptionID,
		NewPaymentStatus: StatusPending,
	}
	// The setup charge rides along in the subscription response.
	if tran := created.TransactionResponse; tran != nil && tran.Code.Success() {
		result.CaptureTransactionID = tran.TransactionID
		result.AuthorizationCode = tran.AuthorizationCode
		result.Message = tran.Message
		result.NewPaymentStatus = StatusPaid
	}
	return result, nil
}

// CancelRecurringPayment cancels an active subscription.
func (p *Processor) CancelRecurringPayment(ctx context.Context, customerID string, subscriptionID int64) error {
	if _, err := p.gateway.CancelSubscription(ctx, customerID, subscriptionID); err != nil {
		return err
	}
	if p.records != nil {
		if err := p.records.UpdateRecurringStatus(subscriptionID, store.RecurringCancelled); err != nil {
			logger.Error("failed to update recurring status", err, logger.LogContext{
				Fields: map[string]any{"subscription_id": subscriptionID},
			})
		}
	}
	return nil
}
