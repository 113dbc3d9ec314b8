package ports

import (
	"context"
	"errors"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
)

// ErrSignatureInvalid is returned by a Verifier that positively rejected a delivery.
// Any other verifier error is treated as transient.
var ErrSignatureInvalid = errors.New("webhook signature rejected")

// Verifier authenticates a delivery before its body is trusted.
type Verifier interface {
	Verify(ctx context.Context, delivery domain.Delivery) error
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, delivery domain.Delivery) error

func (f VerifierFunc) Verify(ctx context.Context, delivery domain.Delivery) error {
	return f(ctx, delivery)
}

// Decoder turns a provider payload into a PaymentEvent.
type Decoder interface {
	Decode(body []byte) (domain.PaymentEvent, error)
}

// Provider pairs the verifier and decoder registered under one provider name.
type Provider struct {
	Verifier Verifier
	Decoder  Decoder
}

// OrderPayments is the slice of the order service the reconciler drives.
type OrderPayments interface {
	CapturePayment(ctx context.Context, input ordertypes.CapturePaymentInput) (*ordertypes.CaptureResult, error)
}

// Reconciler applies verified provider deliveries to orders.
type Reconciler interface {
	Apply(ctx context.Context, delivery domain.Delivery) (domain.Outcome, error)
}
