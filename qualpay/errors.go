package qualpay

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned before any network call when the merchant id
// is missing or does not parse as a positive integer. This is an operator
// configuration fault, never a transient failure.
var ErrNotConfigured = errors.New("qualpay: merchant id is missing or invalid")

// GatewayError is a non-success Payment Gateway response code. It is a
// terminal business error for the single request that produced it; retrying
// the same request risks a duplicate charge.
type GatewayError struct {
	Code    GatewayCode
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("qualpay gateway error: %s. %s", e.Code, e.Message)
}

// PlatformError is a non-success Platform API response code.
type PlatformError struct {
	Code    PlatformCode
	Message string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("qualpay platform error: %d. %s", e.Code, e.Message)
}

// TransportError is a failure below the protocol level: connection failure,
// timeout, or a response body that could not be parsed. The outcome of the
// request is unknown; callers must not assume the charge did not happen.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("qualpay: %s: outcome unknown: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
