package application

import "errors"

var (
	// ErrUnknownProvider signals no verifier and decoder are registered for the provider name.
	ErrUnknownProvider = errors.New("unknown payment provider")
	// ErrUntrustedEvent signals the delivery failed verification.
	ErrUntrustedEvent = errors.New("payment event could not be verified")
	// ErrMalformedEvent signals a verified delivery that could not be decoded.
	ErrMalformedEvent = errors.New("payment event is malformed")
	// ErrOrderNotFound signals the event references an order that does not exist.
	ErrOrderNotFound = errors.New("payment event references an unknown order")
)
