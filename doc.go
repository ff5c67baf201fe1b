// Package qualpay integrates the Qualpay payment gateway with an e-commerce
// host platform: card authorization, capture, refund, void, tokenization,
// customer card vaulting and subscription-based recurring billing.
//
// # Overview
//
// The module is a client adapter. It translates host-platform payment
// requests into Qualpay HTTP/JSON calls and translates gateway responses
// back into host-platform results. Nothing is charged, stored or scheduled
// locally except the bookkeeping needed to correlate asynchronous webhook
// events back to recurring payment records.
//
// # Architecture
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│  Host Platform  │◄──►│   checkout.     │◄──►│    Qualpay      │
//	│  (orders, cart) │    │   Processor     │    │  Gateway + API  │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └────────┬────────┘    └────────┬────────┘
//	                                │                      │
//	                         ┌──────┴──────┐        webhook POST
//	                         │   qualpay.  │               │
//	                         │   Client    │        ┌──────┴──────┐
//	                         └─────────────┘        │  handler.   │
//	                                                │  Webhook    │
//	                                                └─────────────┘
//
// Package layout:
//
//   - qualpay: typed wire models, transport client and the operation facade
//     for the Payment Gateway (pg/...) and Platform (platform/...) APIs.
//   - checkout: payment orchestration invoked by the host's order lifecycle.
//   - store: SQLite-backed recurring payment records and webhook idempotence.
//   - handler: inbound webhook endpoint (always responds 200).
//
// # Quick Start
//
//	settings := config.Settings{
//	    MerchantID:  "212000000001",
//	    SecurityKey: "sk_live_...",
//	    UseSandbox:  true,
//	}
//	client, err := qualpay.NewClient(settings, qualpay.ClientOptions{})
//	if err != nil {
//	    panic(err)
//	}
//
//	resp, err := client.Sale(ctx, &qualpay.TransactionRequest{
//	    PurchaseID:     "order-42",
//	    Amount:         108.25,
//	    CardNumber:     "4111111111111111",
//	    ExpirationDate: "1230",
//	    Cvv2:           "123",
//	})
//
// Qualpay supports USD only; the checkout processor fails fast before any
// network call when the store's primary currency is anything else.
package qualpay
