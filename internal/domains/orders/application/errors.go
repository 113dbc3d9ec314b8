package application

import (
	"errors"
	"fmt"

	inventorydomain "github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	inventoryports "github.com/Apurer/go-gin-storefront/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrUnauthenticated signals the call carried no caller identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden signals the caller may not act on the order.
	ErrForbidden = errors.New("not allowed to access this order")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrMissingUser) ||
		errors.Is(err, domain.ErrNoItems) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidPrice) ||
		errors.Is(err, domain.ErrInvalidAddress) ||
		errors.Is(err, domain.ErrInvalidPaymentMethod) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, inventorydomain.ErrUnknownSize) ||
		errors.Is(err, inventorydomain.ErrInvalidQuantity) ||
		errors.Is(err, inventorydomain.ErrEmptyReservation) ||
		errors.Is(err, inventoryports.ErrProductNotFound) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
