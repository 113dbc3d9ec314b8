package paypal

import (
	"context"
	"encoding/json"
	"fmt"

	paypalclient "github.com/Apurer/go-gin-storefront/internal/clients/http/paypal"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
)

// Transmission headers PayPal signs every webhook with.
const (
	HeaderAuthAlgo         = "Paypal-Auth-Algo"
	HeaderCertURL          = "Paypal-Cert-Url"
	HeaderTransmissionID   = "Paypal-Transmission-Id"
	HeaderTransmissionSig  = "Paypal-Transmission-Sig"
	HeaderTransmissionTime = "Paypal-Transmission-Time"
)

// SignatureAPI is the PayPal call the verifier depends on.
type SignatureAPI interface {
	VerifyWebhookSignature(ctx context.Context, req paypalclient.VerifyRequest) (string, error)
}

var _ ports.Verifier = (*Verifier)(nil)

// Verifier authenticates deliveries through PayPal's verify-webhook-signature API.
type Verifier struct {
	api       SignatureAPI
	webhookID string
}

// NewVerifier binds the verifier to the webhook id configured in the PayPal dashboard.
func NewVerifier(api SignatureAPI, webhookID string) *Verifier {
	return &Verifier{api: api, webhookID: webhookID}
}

func (v *Verifier) Verify(ctx context.Context, delivery domain.Delivery) error {
	req := paypalclient.VerifyRequest{
		AuthAlgo:         delivery.Header(HeaderAuthAlgo),
		CertURL:          delivery.Header(HeaderCertURL),
		TransmissionID:   delivery.Header(HeaderTransmissionID),
		TransmissionSig:  delivery.Header(HeaderTransmissionSig),
		TransmissionTime: delivery.Header(HeaderTransmissionTime),
		WebhookID:        v.webhookID,
	}
	for name, value := range map[string]string{
		HeaderAuthAlgo:         req.AuthAlgo,
		HeaderCertURL:          req.CertURL,
		HeaderTransmissionID:   req.TransmissionID,
		HeaderTransmissionSig:  req.TransmissionSig,
		HeaderTransmissionTime: req.TransmissionTime,
	} {
		if value == "" {
			return fmt.Errorf("%w: missing %s header", ports.ErrSignatureInvalid, name)
		}
	}
	if !json.Valid(delivery.Body) {
		return fmt.Errorf("%w: body is not JSON", ports.ErrSignatureInvalid)
	}
	req.WebhookEvent = json.RawMessage(delivery.Body)

	status, err := v.api.VerifyWebhookSignature(ctx, req)
	if err != nil {
		return err
	}
	if status != paypalclient.VerificationSuccess {
		return fmt.Errorf("%w: paypal reported %s", ports.ErrSignatureInvalid, status)
	}
	return nil
}
