package storefrontserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	paymentports "github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// MaxWebhookBodyBytes caps the size of a provider delivery.
const MaxWebhookBodyBytes = 1 << 20

// WebhooksAPI hands raw provider deliveries to the payment reconciler.
type WebhooksAPI struct {
	reconciler paymentports.Reconciler
}

// NewWebhooksAPI creates a WebhooksAPI.
func NewWebhooksAPI(reconciler paymentports.Reconciler) WebhooksAPI {
	return WebhooksAPI{reconciler: reconciler}
}

// WebhookResponse acknowledges a delivery.
type WebhookResponse struct {
	Outcome string `json:"outcome"`
}

// Post /api/webhooks/:provider
// Receive a payment provider notification
func (api *WebhooksAPI) ReceiveWebhook(c *gin.Context) {
	if api.reconciler == nil {
		DefaultHandleFunc(c)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondProblem(c, apierrors.ErrBadRequest.WithDetail("webhook body is too large"))
			return
		}
		respondProblem(c, apierrors.ErrBadRequest.WithDetail("could not read webhook body"))
		return
	}
	outcome, err := api.reconciler.Apply(c.Request.Context(), paymentdomain.Delivery{
		Provider: c.Param("provider"),
		Headers:  c.Request.Header.Clone(),
		Body:     body,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, WebhookResponse{Outcome: string(outcome)})
}
