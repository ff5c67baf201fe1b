package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mstgnz/qualpay/infra/config"
	"github.com/mstgnz/qualpay/infra/logger"
	"github.com/mstgnz/qualpay/infra/response"
	"github.com/mstgnz/qualpay/qualpay"
	"github.com/mstgnz/qualpay/store"
)

// SubscriptionService is the slice of the Qualpay client the webhook
// handler needs to resolve notifications.
type SubscriptionService interface {
	GetWebhook(ctx context.Context, webhookID string) (*qualpay.Webhook, error)
	CreateWebhook(ctx context.Context, req *qualpay.CreateWebhookRequest) (*qualpay.Webhook, error)
	GetSubscriptionTransactions(ctx context.Context, subscriptionID int64) ([]qualpay.SubscriptionTransaction, error)
}

// WebhookHandler receives Qualpay webhook notifications and advances the
// locally tracked recurring payments.
type WebhookHandler struct {
	settings config.Settings
	service  SubscriptionService
	store    *store.Store
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(settings config.Settings, service SubscriptionService, st *store.Store) *WebhookHandler {
	return &WebhookHandler{
		settings: settings,
		service:  service,
		store:    st,
	}
}

// HandleWebhook processes a webhook delivery. The endpoint answers 200 no
// matter what: a non-200 makes Qualpay redeliver and eventually suspend the
// webhook, so processing failures are logged instead of surfaced.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	defer func() {
		response.Success(w, http.StatusOK, "ok", nil)
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("failed to read webhook body", err)
		return
	}

	event, err := qualpay.DecodeWebhookEvent(h.settings.WebhookSecret, body, headerSignatures(r))
	if err != nil {
		logger.Warn("rejected webhook delivery", logger.LogContext{
			Fields: map[string]any{"error": err.Error()},
		})
		return
	}

	if err := h.process(r.Context(), event); err != nil {
		logger.Error("failed to process webhook event", err, logger.LogContext{
			Fields: map[string]any{"event": event.Event},
		})
	}
}

// headerSignatures collects candidate signatures from the delivery. Qualpay
// may send several values in one header separated by commas.
func headerSignatures(r *http.Request) []string {
	var signatures []string
	for _, value := range r.Header.Values(qualpay.SignatureHeader) {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				signatures = append(signatures, part)
			}
		}
	}
	return signatures
}

func (h *WebhookHandler) process(ctx context.Context, event *qualpay.WebhookEvent) error {
	switch event.Event {
	case qualpay.EventValidateURL:
		// Sent once when the webhook is registered. Nothing to record.
		return nil
	case qualpay.EventSubscriptionPaymentSuccess, qualpay.EventSubscriptionPaymentFailure:
		return h.processPayment(ctx, event)
	case qualpay.EventSubscriptionSuspended:
		return h.processStatus(event, store.RecurringSuspended)
	case qualpay.EventSubscriptionComplete:
		return h.processStatus(event, store.RecurringComplete)
	default:
		logger.Info("ignoring webhook event", logger.LogContext{
			Fields: map[string]any{"event": event.Event},
		})
		return nil
	}
}

// processPayment records one recurring charge. The notification itself does
// not carry the charge, so the latest transaction is fetched from the
// subscription's history. Redelivered notifications land on an already
// recorded transaction id and are dropped.
func (h *WebhookHandler) processPayment(ctx context.Context, event *qualpay.WebhookEvent) error {
	sub, rec, err := h.resolveSubscription(event)
	if err != nil || rec == nil {
		return err
	}

	trans, err := h.service.GetSubscriptionTransactions(ctx, sub.SubscriptionID)
	if err != nil {
		return err
	}
	if len(trans) == 0 {
		return fmt.Errorf("subscription %d has no transactions", sub.SubscriptionID)
	}

	// The transaction list is ordered newest first.
	latest := trans[0]
	inserted, err := h.store.MarkTransactionProcessed(&store.RecurringTransaction{
		SubscriptionID: sub.SubscriptionID,
		TransactionID:  latest.TransactionID,
		Amount:         latest.Amount,
		Success:        event.Event == qualpay.EventSubscriptionPaymentSuccess,
	})
	if err != nil {
		return err
	}
	if !inserted {
		logger.Info("skipping already processed transaction", logger.LogContext{
			Fields: map[string]any{"transaction_id": latest.TransactionID},
		})
		return nil
	}

	logger.Info("recorded recurring payment", logger.LogContext{
		Fields: map[string]any{
			"order_guid":      rec.OrderGUID,
			"subscription_id": sub.SubscriptionID,
			"transaction_id":  latest.TransactionID,
			"event":           event.Event,
		},
	})
	return nil
}

func (h *WebhookHandler) processStatus(event *qualpay.WebhookEvent, status store.RecurringStatus) error {
	sub, rec, err := h.resolveSubscription(event)
	if err != nil || rec == nil {
		return err
	}
	return h.store.UpdateRecurringStatus(sub.SubscriptionID, status)
}

// resolveSubscription decodes the subscription payload and matches it to a
// tracked order through the plan description, which carries the order GUID.
// An unmatched subscription is not an error; this merchant account may
// serve other storefronts.
func (h *WebhookHandler) resolveSubscription(event *qualpay.WebhookEvent) (*qualpay.Subscription, *store.RecurringPayment, error) {
	sub, err := event.SubscriptionPayload()
	if err != nil {
		return nil, nil, err
	}

	rec, err := h.store.GetRecurringPaymentByOrder(sub.PlanDescription)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		logger.Info("webhook for untracked subscription", logger.LogContext{
			Fields: map[string]any{"subscription_id": sub.SubscriptionID},
		})
		return sub, nil, nil
	}
	return sub, rec, nil
}

// EnsureWebhook makes sure a webhook subscription for the given
// notification URL exists on the Qualpay platform, creating one when the
// configured id is missing or stale. The returned webhook carries the
// secret that signs deliveries.
func EnsureWebhook(ctx context.Context, service SubscriptionService, settings config.Settings, notificationURL string) (*qualpay.Webhook, error) {
	if settings.WebhookID != "" {
		hook, err := service.GetWebhook(ctx, settings.WebhookID)
		if err != nil {
			return nil, err
		}
		if hook != nil && hook.Status == qualpay.WebhookActive {
			return hook, nil
		}
	}

	return service.CreateWebhook(ctx, &qualpay.CreateWebhookRequest{
		Label:           "storefront recurring payments",
		NotificationURL: notificationURL,
		Status:          qualpay.WebhookActive,
		Events: []string{
			qualpay.EventSubscriptionSuspended,
			qualpay.EventSubscriptionComplete,
			qualpay.EventSubscriptionPaymentSuccess,
			qualpay.EventSubscriptionPaymentFailure,
		},
	})
}
