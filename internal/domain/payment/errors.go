// internal/domain/payment/errors.go
package payment

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrVerificationFailed is returned when the provider reports a
	// transaction state that is neither success nor abandoned.
	ErrVerificationFailed = errors.New("payment verification failed")

	// ErrOrderNotPayable is returned when initializing payment for an
	// order that is not awaiting payment.
	ErrOrderNotPayable = errors.New("order is not awaiting payment")

	// ErrAccountDetailsRequired is returned by account resolution when
	// the account number or bank code is missing.
	ErrAccountDetailsRequired = errors.New("account number and bank code are required")
)

// ProviderError wraps any failure talking to the payment provider:
// transport errors, non-2xx responses, an open circuit breaker. The
// message is safe to surface; raw provider payloads never leave this
// package.
type ProviderError struct {
	StatusCode int // zero when the request never completed
	Message    string
	RetryAfter time.Duration // populated on rate limit responses
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("payment provider error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payment provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AmountMismatchError means the provider confirmed a charge whose
// amount differs from the order total. Verification fails and the
// order stays untouched.
type AmountMismatchError struct {
	Reference string
	Expected  int64
	Received  int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch for %s: expected %d, provider reported %d",
		e.Reference, e.Expected, e.Received)
}
