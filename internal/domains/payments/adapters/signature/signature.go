package signature

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
)

// DefaultHeader carries the body signature when no header name is configured.
const DefaultHeader = "X-Webhook-Signature"

var (
	_ ports.Verifier = (*HMAC)(nil)
	_ ports.Verifier = RejectAll{}
)

// HMAC accepts deliveries whose signature header is the hex HMAC-SHA256 of the
// raw body under a shared secret. A "sha256=" prefix is allowed.
type HMAC struct {
	secret []byte
	header string
}

// NewHMAC builds the verifier. An empty header selects DefaultHeader.
func NewHMAC(secret, header string) (*HMAC, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("webhook shared secret is required")
	}
	if strings.TrimSpace(header) == "" {
		header = DefaultHeader
	}
	return &HMAC{secret: []byte(secret), header: header}, nil
}

func (v *HMAC) Verify(_ context.Context, delivery domain.Delivery) error {
	provided := strings.TrimPrefix(delivery.Header(v.header), "sha256=")
	if provided == "" {
		return fmt.Errorf("%w: missing %s header", ports.ErrSignatureInvalid, v.header)
	}
	got, err := hex.DecodeString(provided)
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", ports.ErrSignatureInvalid)
	}
	if !hmac.Equal(got, Sign(v.secret, delivery.Body)) {
		return fmt.Errorf("%w: signature mismatch", ports.ErrSignatureInvalid)
	}
	return nil
}

// Sign returns the HMAC-SHA256 of body.
func Sign(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// RejectAll refuses every delivery. Used when a provider has no verification configured.
type RejectAll struct{}

func (RejectAll) Verify(context.Context, domain.Delivery) error {
	return fmt.Errorf("%w: no verifier configured", ports.ErrSignatureInvalid)
}
