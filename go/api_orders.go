package storefrontserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry a checkout without placing it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// OrdersAPI wires HTTP transport with the orders bounded context service and checkout workflow.
type OrdersAPI struct {
	service  orderports.Service
	checkout orderports.CheckoutOrchestrator
}

// NewOrdersAPI creates an OrdersAPI. A nil checkout places orders on the service directly.
func NewOrdersAPI(service orderports.Service, checkout orderports.CheckoutOrchestrator) OrdersAPI {
	return OrdersAPI{service: service, checkout: checkout}
}

// Post /api/orders
// Place an order for the caller
func (api *OrdersAPI) CreateOrder(c *gin.Context) {
	principal, err := principalFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var payload orderhttpmapper.CreateOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail("Idempotency-Key is too long"))
		return
	}
	order, err := api.placeOrder(c.Request.Context(), orderhttpmapper.ToPlaceOrderInput(principal, payload, key))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromDomainOrder(order))
}

func (api *OrdersAPI) placeOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*orderdomain.Order, error) {
	if api.checkout != nil {
		return api.checkout.PlaceOrder(ctx, input)
	}
	return api.service.CreateOrder(ctx, input)
}

// Get /api/orders
// List orders visible to the caller, newest first
func (api *OrdersAPI) ListOrders(c *gin.Context) {
	principal, err := principalFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	orders, err := api.service.ListOrders(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrderList(orders))
}

// Get /api/orders/:orderId
// Find an order by ID
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	principal, err := principalFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), principal, c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Put /api/orders/:orderId/status
// Move an order along its lifecycle
func (api *OrdersAPI) UpdateOrderStatus(c *gin.Context) {
	principal, err := principalFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var payload orderhttpmapper.UpdateStatus
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	order, err := api.service.UpdateStatus(c.Request.Context(), ordertypes.UpdateStatusInput{
		Principal: principal,
		OrderID:   c.Param("orderId"),
		Status:    orderdomain.Status(payload.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}
