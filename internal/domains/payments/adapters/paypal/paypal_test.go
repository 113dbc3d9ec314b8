package paypal

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paypalclient "github.com/Apurer/go-gin-storefront/internal/clients/http/paypal"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
)

const captureCompleted = `{
  "id": "WH-58D329510W468432D",
  "event_type": "PAYMENT.CAPTURE.COMPLETED",
  "resource": {
    "id": "42311647XV020574X",
    "invoice_id": "5e2b4c4e-order",
    "status": "COMPLETED"
  }
}`

func TestDecodeCaptureCompleted(t *testing.T) {
	evt, err := Decoder{}.Decode([]byte(captureCompleted))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentEvent{
		ID:               "WH-58D329510W468432D",
		Type:             domain.EventPaymentCaptured,
		OrderReference:   "5e2b4c4e-order",
		PaymentReference: "42311647XV020574X",
	}, evt)
}

func TestDecodeFallsBackToCustomID(t *testing.T) {
	evt, err := Decoder{}.Decode([]byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP","custom_id":"ord-9"}}`))
	require.NoError(t, err)
	assert.Equal(t, "ord-9", evt.OrderReference)
}

func TestDecodeOtherEventsKeepProviderName(t *testing.T) {
	evt, err := Decoder{}.Decode([]byte(`{"id":"WH-2","event_type":"PAYMENT.CAPTURE.REFUNDED","resource":{"id":"CAP"}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EventType("paypal.payment.capture.refunded"), evt.Type)
	assert.Empty(t, evt.OrderReference)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decoder{}.Decode([]byte(`not json`))
	require.Error(t, err)
	_, err = Decoder{}.Decode([]byte(`{"id":"WH-3"}`))
	require.Error(t, err)
}

type stubAPI struct {
	status string
	err    error
	got    paypalclient.VerifyRequest
}

func (s *stubAPI) VerifyWebhookSignature(_ context.Context, req paypalclient.VerifyRequest) (string, error) {
	s.got = req
	return s.status, s.err
}

func signedDelivery() domain.Delivery {
	headers := http.Header{}
	headers.Set(HeaderAuthAlgo, "SHA256withRSA")
	headers.Set(HeaderCertURL, "https://api.paypal.com/v1/notifications/certs/CERT-360caa42")
	headers.Set(HeaderTransmissionID, "69cd13f0-d67a-11e5-baa3-778b53f4ae55")
	headers.Set(HeaderTransmissionSig, "lmI95Jx3Y9nhR5SJWlHVIWpg4AgFk7n9bCHSRxbrd8A9zrhdu2rMyFrmz+Zjh3s3boXB07VXCXUZy/UFzUlnGJn0wDugt7FlSvdKeIJenLRemUxYCPVoEZzg9VFNqOa48gMkvF+XTpxBeUx/kWy6B5cp7GkT2+pOowfRK7OaynuxUoKW3JcMWw272VKjLTtTAShncla7tGF+55rxyt2KNZIIqxNMJ48RDZheGU5w1npu9dZHnPgTXB9iomeVRoD8O/jhRpnKsGrDschyNdkeh81BJJMH4Ctc6lnCCquoP/GzCzz33MMsNdid7vL/NIWaCsekQpW26FpWPi/tfj8nLA==")
	headers.Set(HeaderTransmissionTime, "2016-02-18T20:01:35Z")
	return domain.Delivery{Provider: ProviderName, Headers: headers, Body: []byte(captureCompleted)}
}

func TestVerifierAcceptsSuccess(t *testing.T) {
	api := &stubAPI{status: paypalclient.VerificationSuccess}
	err := NewVerifier(api, "WH-ID").Verify(context.Background(), signedDelivery())
	require.NoError(t, err)
	assert.Equal(t, "WH-ID", api.got.WebhookID)
	assert.Equal(t, "SHA256withRSA", api.got.AuthAlgo)
	assert.JSONEq(t, captureCompleted, string(api.got.WebhookEvent))
}

func TestVerifierRejectsFailureStatus(t *testing.T) {
	err := NewVerifier(&stubAPI{status: "FAILURE"}, "WH-ID").Verify(context.Background(), signedDelivery())
	require.ErrorIs(t, err, ports.ErrSignatureInvalid)
}

func TestVerifierRejectsMissingHeaders(t *testing.T) {
	api := &stubAPI{status: paypalclient.VerificationSuccess}
	delivery := signedDelivery()
	delivery.Headers.Del(HeaderTransmissionSig)

	err := NewVerifier(api, "WH-ID").Verify(context.Background(), delivery)
	require.ErrorIs(t, err, ports.ErrSignatureInvalid)
	assert.Empty(t, api.got.TransmissionID)
}

func TestVerifierPassesThroughTransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	err := NewVerifier(&stubAPI{err: boom}, "WH-ID").Verify(context.Background(), signedDelivery())
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ports.ErrSignatureInvalid)
}
