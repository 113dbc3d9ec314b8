package storefrontserver

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	accountapp "github.com/Apurer/go-gin-storefront/internal/domains/accounts/application"
	accountports "github.com/Apurer/go-gin-storefront/internal/domains/accounts/ports"
	inventorydomain "github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	paymentapp "github.com/Apurer/go-gin-storefront/internal/domains/payments/application"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var responder = apierrors.NewChainedResponder("",
	mapStockError,
	mapStatusError(apierrors.ErrBadRequest,
		orderapp.ErrInvalidInput,
		orderdomain.ErrInvalidStatus,
		accountapp.ErrInvalidInput,
		paymentapp.ErrUntrustedEvent,
		paymentapp.ErrMalformedEvent,
	),
	mapStatusError(apierrors.ErrUnauthorized,
		orderapp.ErrUnauthenticated,
		accountapp.ErrAuthentication,
		errNoPrincipal,
	),
	mapStatusError(apierrors.ErrForbidden,
		orderapp.ErrForbidden,
	),
	mapStatusError(apierrors.ErrNotFound,
		orderports.ErrNotFound,
		paymentapp.ErrOrderNotFound,
		paymentapp.ErrUnknownProvider,
		accountports.ErrNotFound,
	),
	mapStatusError(apierrors.ErrConflict,
		orderdomain.ErrInvalidTransition,
		orderports.ErrIdempotencyConflict,
		orderports.ErrPaymentReferenceTaken,
		accountports.ErrEmailTaken,
	),
)

// mapStockError reports every short line so the client can adjust its cart.
func mapStockError(err error) (apierrors.ProblemDetail, bool) {
	var stockErr *inventorydomain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.ErrConflict.
		WithDetail(inventorydomain.ErrInsufficientStock.Error()).
		WithExtension("shortages", stockErr.Shortages), true
}

func mapStatusError(template apierrors.ProblemDetail, targets ...error) apierrors.ErrorMapper {
	return func(err error) (apierrors.ProblemDetail, bool) {
		for _, target := range targets {
			if errors.Is(err, target) {
				return template.WithDetail(err.Error()), true
			}
		}
		return apierrors.ProblemDetail{}, false
	}
}

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

// respondError translates application errors into RFC 7807 responses.
// Unmapped errors are logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if problem, ok := responder.Map(err); ok {
		responder.Respond(c, problem)
		return
	}
	slog.ErrorContext(c.Request.Context(), "request failed",
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		slog.String("error", err.Error()),
	)
	responder.RespondError(c, err)
}
