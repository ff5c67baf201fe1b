package qualpay

import (
	"context"
	"fmt"

	"github.com/mstgnz/qualpay/infra/logger"
)

// transaction runs one Payment Gateway transaction request and interprets
// the response code.
func (c *Client) transaction(ctx context.Context, kind requestKind, id string, req any) (*TransactionResponse, error) {
	var resp TransactionResponse
	if err := c.do(ctx, specFor(kind, id), req, &resp); err != nil {
		return nil, err
	}
	if !resp.Code.Success() {
		logger.Warn("qualpay gateway declined request", logger.LogContext{
			Fields: map[string]any{"rcode": string(resp.Code), "rmsg": resp.Message},
		})
		return nil, &GatewayError{Code: resp.Code, Message: resp.Message}
	}
	return &resp, nil
}

// Authorize sends cardholder data to the issuing bank for approval. The
// approved amount stays open until captured, voided or expired.
func (c *Client) Authorize(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error) {
	if err := c.prepareTransaction(req); err != nil {
		return nil, err
	}
	return c.transaction(ctx, kindAuthorize, "", req)
}

// Sale authorizes and captures in a single message.
func (c *Client) Sale(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error) {
	if err := c.prepareTransaction(req); err != nil {
		return nil, err
	}
	return c.transaction(ctx, kindSale, "", req)
}

// Verify validates cardholder data with the issuer without reserving funds.
func (c *Client) Verify(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error) {
	// A verify is a zero-dollar check, so the amount rule does not apply.
	req.MerchantID = c.merchantID
	req.DeveloperID = c.developerID
	if req.CurrencyISOCode == 0 {
		req.CurrencyISOCode = UsdNumericISOCode
	}
	if _, err := req.cardRef(); err != nil {
		return nil, err
	}
	return c.transaction(ctx, kindVerify, "", req)
}

func (c *Client) prepareTransaction(req *TransactionRequest) error {
	req.MerchantID = c.merchantID
	req.DeveloperID = c.developerID
	if req.CurrencyISOCode == 0 {
		req.CurrencyISOCode = UsdNumericISOCode
	}
	return req.Validate()
}

// Capture captures a previously authorized transaction, up to the
// authorized amount.
func (c *Client) Capture(ctx context.Context, req *CaptureRequest) (*TransactionResponse, error) {
	if req.TransactionID == "" {
		return nil, fmt.Errorf("qualpay: capture requires a transaction id")
	}
	req.MerchantID = c.merchantID
	req.DeveloperID = c.developerID
	return c.transaction(ctx, kindCapture, req.TransactionID, req)
}

// Void voids a previously authorized transaction. Captured transactions can
// be voided until the batch closes.
func (c *Client) Void(ctx context.Context, req *VoidRequest) (*TransactionResponse, error) {
	if req.TransactionID == "" {
		return nil, fmt.Errorf("qualpay: void requires a transaction id")
	}
	req.MerchantID = c.merchantID
	req.DeveloperID = c.developerID
	return c.transaction(ctx, kindVoid, req.TransactionID, req)
}

// Refund issues a partial or full refund of a captured transaction. The
// gateway rejects refunds exceeding the original captured amount.
func (c *Client) Refund(ctx context.Context, req *RefundRequest) (*TransactionResponse, error) {
	if req.TransactionID == "" {
		return nil, fmt.Errorf("qualpay: refund requires a transaction id")
	}
	req.MerchantID = c.merchantID
	req.DeveloperID = c.developerID
	return c.transaction(ctx, kindRefund, req.TransactionID, req)
}

// Tokenize stores cardholder data on the Qualpay system and returns the
// reusable card id.
func (c *Client) Tokenize(ctx context.Context, req *TokenizeRequest) (string, error) {
	req.MerchantID = c.merchantID
	req.DeveloperID = c.developerID

	var resp TokenizeResponse
	if err := c.do(ctx, specFor(kindTokenize, ""), req, &resp); err != nil {
		return "", err
	}
	if !resp.Code.Success() {
		return "", &GatewayError{Code: resp.Code, Message: resp.Message}
	}
	return resp.CardID, nil
}
