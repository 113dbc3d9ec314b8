/*
 * Storefront API
 *
 * Checkout, order lifecycle and payment webhooks for the storefront.
 *
 * API version: 1.0.0
 */

package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Access levels a route can require.
type access int

const (
	public access = iota
	customer
	administrator
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	access      access
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the storefront routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	authenticate := Authenticate(handleFunctions.Authenticator)
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := []gin.HandlerFunc{}
		switch route.access {
		case customer:
			handlers = append(handlers, authenticate)
		case administrator:
			handlers = append(handlers, authenticate, RequireAdmin())
		}
		handlers = append(handlers, route.HandlerFunc)
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	return router
}

// DefaultHandleFunc is the default handler function for routes without an implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// ApiHandleFunctions groups the handlers and the bearer-token authenticator.
type ApiHandleFunctions struct {
	AuthAPI       AuthAPI
	OrdersAPI     OrdersAPI
	WebhooksAPI   WebhooksAPI
	HealthAPI     HealthAPI
	Authenticator Authenticator
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"Healthz",
			http.MethodGet,
			"/healthz",
			handleFunctions.HealthAPI.Healthz,
			public,
		},
		{
			"Register",
			http.MethodPost,
			"/api/auth/register",
			handleFunctions.AuthAPI.Register,
			public,
		},
		{
			"Login",
			http.MethodPost,
			"/api/auth/login",
			handleFunctions.AuthAPI.Login,
			public,
		},
		{
			"Logout",
			http.MethodPost,
			"/api/auth/logout",
			handleFunctions.AuthAPI.Logout,
			customer,
		},
		{
			"CreateOrder",
			http.MethodPost,
			"/api/orders",
			handleFunctions.OrdersAPI.CreateOrder,
			customer,
		},
		{
			"ListOrders",
			http.MethodGet,
			"/api/orders",
			handleFunctions.OrdersAPI.ListOrders,
			customer,
		},
		{
			"GetOrder",
			http.MethodGet,
			"/api/orders/:orderId",
			handleFunctions.OrdersAPI.GetOrder,
			customer,
		},
		{
			"UpdateOrderStatus",
			http.MethodPut,
			"/api/orders/:orderId/status",
			handleFunctions.OrdersAPI.UpdateOrderStatus,
			administrator,
		},
		{
			"ReceiveWebhook",
			http.MethodPost,
			"/api/webhooks/:provider",
			handleFunctions.WebhooksAPI.ReceiveWebhook,
			public,
		},
	}
}
