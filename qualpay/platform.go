package qualpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// platform runs one Platform API request, interprets the response code and
// decodes the data payload into out (when out is non-nil).
func (c *Client) platform(ctx context.Context, kind requestKind, id string, req, out any) error {
	var resp PlatformResponse
	if err := c.do(ctx, specFor(kind, id), req, &resp); err != nil {
		return err
	}
	if !resp.Code.Success() {
		return &PlatformError{Code: resp.Code, Message: resp.Message}
	}
	if out != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return &TransportError{Op: specFor(kind, id).path, Err: fmt.Errorf("parse data: %w", err)}
		}
	}
	return nil
}

// notFound reports whether err is the platform's resource-not-exists reply.
func notFound(err error) bool {
	var perr *PlatformError
	return errors.As(err, &perr) && perr.Code.NotFound()
}

// GetCustomer loads a customer from the vault. An unvaulted customer is an
// expected state: it returns (nil, nil), not an error.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*VaultCustomer, error) {
	var customer VaultCustomer
	err := c.platform(ctx, kindGetCustomer, customerID, nil, &customer)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer creates a new customer record in the vault.
func (c *Client) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*VaultCustomer, error) {
	var customer VaultCustomer
	if err := c.platform(ctx, kindCreateCustomer, "", req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomerCards lists the billing cards stored under a vault customer.
// An unvaulted customer yields an empty list.
func (c *Client) GetCustomerCards(ctx context.Context, customerID string) ([]BillingCard, error) {
	var customer VaultCustomer
	err := c.platform(ctx, kindGetCustomerCards, customerID, nil, &customer)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return customer.BillingCards, nil
}

// CreateCustomerCard stores a tokenized card under a vault customer.
func (c *Client) CreateCustomerCard(ctx context.Context, req *BillingCardRequest) error {
	return c.platform(ctx, kindCreateCustomerCard, req.CustomerID, req, nil)
}

// UpdateCustomerCard updates a billing card under a vault customer.
func (c *Client) UpdateCustomerCard(ctx context.Context, req *BillingCardRequest) error {
	return c.platform(ctx, kindUpdateCustomerCard, req.CustomerID, req, nil)
}

// DeleteCustomerCard removes a billing card from a vault customer.
func (c *Client) DeleteCustomerCard(ctx context.Context, customerID, cardID string) error {
	req := &BillingCardRequest{CustomerID: customerID, CardID: cardID}
	return c.platform(ctx, kindDeleteCustomerCard, customerID, req, nil)
}

// GetTransientKey fetches a short-lived Embedded Fields key for client-side
// tokenization.
func (c *Client) GetTransientKey(ctx context.Context) (*EmbeddedKey, error) {
	var key EmbeddedKey
	if err := c.platform(ctx, kindGetTransientKey, "", nil, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// GetWebhook loads a webhook subscription by id. A missing webhook returns
// (nil, nil) so callers can re-register without special-casing.
func (c *Client) GetWebhook(ctx context.Context, webhookID string) (*Webhook, error) {
	if _, err := strconv.ParseInt(webhookID, 10, 64); err != nil {
		return nil, fmt.Errorf("qualpay: invalid webhook id %q", webhookID)
	}
	var webhook Webhook
	err := c.platform(ctx, kindGetWebhook, webhookID, nil, &webhook)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &webhook, nil
}

// CreateWebhook registers a webhook subscription under the merchant node.
// The returned webhook carries the signing secret; it is shown only once.
func (c *Client) CreateWebhook(ctx context.Context, req *CreateWebhookRequest) (*Webhook, error) {
	req.WebhookNode = strconv.FormatInt(c.merchantID, 10)
	var webhook Webhook
	if err := c.platform(ctx, kindCreateWebhook, "", req, &webhook); err != nil {
		return nil, err
	}
	return &webhook, nil
}

// CreateSubscription starts a recurring billing subscription. The setup
// amount is charged atomically with the creation; the transaction outcome
// rides back in the subscription response.
func (c *Client) CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error) {
	req.MerchantID = c.merchantID
	var subscription Subscription
	if err := c.platform(ctx, kindCreateSubscription, "", req, &subscription); err != nil {
		return nil, err
	}
	return &subscription, nil
}

// CancelSubscription cancels a recurring billing subscription. Cancellation
// is the only locally-driven status transition; all others arrive via
// webhook events.
func (c *Client) CancelSubscription(ctx context.Context, customerID string, subscriptionID int64) (*Subscription, error) {
	req := &CreateSubscriptionRequest{
		MerchantID: c.merchantID,
		CustomerID: customerID,
	}
	var subscription Subscription
	id := strconv.FormatInt(subscriptionID, 10)
	if err := c.platform(ctx, kindCancelSubscription, id, req, &subscription); err != nil {
		return nil, err
	}
	return &subscription, nil
}

// GetSubscriptionTransactions lists charge attempts for a subscription,
// newest first.
func (c *Client) GetSubscriptionTransactions(ctx context.Context, subscriptionID int64) ([]SubscriptionTransaction, error) {
	var transactions []SubscriptionTransaction
	id := strconv.FormatInt(subscriptionID, 10)
	if err := c.platform(ctx, kindSubscriptionTransactions, id, nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}
