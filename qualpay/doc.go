// Package qualpay implements the wire protocol of the Qualpay Payment
// Gateway (pg/...) and Platform (platform/...) APIs: typed request and
// response models, the HTTP transport, response-code interpretation and
// webhook signature validation.
//
// The two API families use independent response-code vocabularies. Gateway
// codes are three-digit strings ("000" is success); Platform codes are small
// integers (0 is success). They are never conflated here.
//
// No call is ever retried. A transport failure means the outcome is unknown,
// and blindly retrying a charge risks charging twice.
package qualpay
