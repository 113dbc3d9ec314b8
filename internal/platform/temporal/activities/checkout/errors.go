package checkout

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	inventorydomain "github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// Application error types carried across the workflow boundary.
const (
	ErrTypeInsufficientStock   = "InsufficientStock"
	ErrTypeInvalidInput        = "InvalidInput"
	ErrTypeUnauthenticated     = "Unauthenticated"
	ErrTypeIdempotencyConflict = "IdempotencyConflict"
)

// EncodeError turns business failures into non-retryable application errors.
// Anything else is returned unchanged so Temporal retries it.
func EncodeError(err error) error {
	if err == nil {
		return nil
	}
	var stockErr *inventorydomain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInsufficientStock, nil, stockErr.Shortages)
	case errors.Is(err, orderapp.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, nil)
	case errors.Is(err, orderapp.ErrUnauthenticated):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeUnauthenticated, nil)
	case errors.Is(err, orderports.ErrIdempotencyConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeIdempotencyConflict, nil)
	default:
		return err
	}
}

// DecodeError maps an application error found anywhere in err's chain back to
// the business error it was encoded from.
func DecodeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case ErrTypeInsufficientStock:
		var shortages []inventorydomain.Shortage
		if appErr.HasDetails() {
			if detailErr := appErr.Details(&shortages); detailErr != nil {
				return fmt.Errorf("%w: %s", inventorydomain.ErrInsufficientStock, appErr.Error())
			}
		}
		return &inventorydomain.InsufficientStockError{Shortages: shortages}
	case ErrTypeInvalidInput:
		return fmt.Errorf("%w: %s", orderapp.ErrInvalidInput, appErr.Error())
	case ErrTypeUnauthenticated:
		return orderapp.ErrUnauthenticated
	case ErrTypeIdempotencyConflict:
		return orderports.ErrIdempotencyConflict
	default:
		return err
	}
}
