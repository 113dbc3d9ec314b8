package paypal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
)

// ProviderName is the path segment PayPal webhooks are delivered to.
const ProviderName = "paypal"

const eventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"

var _ ports.Decoder = Decoder{}

type webhookEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  captureResource `json:"resource"`
}

type captureResource struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`
	CustomID  string `json:"custom_id"`
	Status    string `json:"status"`
}

// Decoder reads PayPal webhook events. Only completed captures are mapped to a
// domain event type; everything else keeps its PayPal name and is ignored downstream.
type Decoder struct{}

func (Decoder) Decode(body []byte) (domain.PaymentEvent, error) {
	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("decode paypal event: %w", err)
	}
	eventType := strings.TrimSpace(evt.EventType)
	if eventType == "" {
		return domain.PaymentEvent{}, errors.New("paypal event has no event_type")
	}
	out := domain.PaymentEvent{
		ID:   strings.TrimSpace(evt.ID),
		Type: domain.EventType("paypal." + strings.ToLower(eventType)),
	}
	if strings.EqualFold(eventType, eventCaptureCompleted) {
		out.Type = domain.EventPaymentCaptured
		out.PaymentReference = strings.TrimSpace(evt.Resource.ID)
		out.OrderReference = strings.TrimSpace(evt.Resource.InvoiceID)
		if out.OrderReference == "" {
			out.OrderReference = strings.TrimSpace(evt.Resource.CustomID)
		}
	}
	return out, nil
}
