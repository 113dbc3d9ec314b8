package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	accounthttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/accounts/adapters/http/mapper"
	accountports "github.com/Apurer/go-gin-storefront/internal/domains/accounts/ports"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// AuthAPI wires HTTP transport with the accounts service.
type AuthAPI struct {
	service accountports.Service
}

// NewAuthAPI creates an AuthAPI backed by the provided service.
func NewAuthAPI(service accountports.Service) AuthAPI {
	return AuthAPI{service: service}
}

// Post /api/auth/register
// Create a customer account
func (api *AuthAPI) Register(c *gin.Context) {
	var payload accounthttpmapper.Register
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	account, err := api.service.Register(c.Request.Context(), payload.Email, payload.Name, payload.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, accounthttpmapper.FromDomainAccount(account))
}

// Post /api/auth/login
// Logs the account into the system and issues a bearer token
func (api *AuthAPI) Login(c *gin.Context) {
	var payload accounthttpmapper.Login
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	account, session, err := api.service.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("X-Expires-After", session.ExpiresAt.UTC().Format(http.TimeFormat))
	c.JSON(http.StatusOK, accounthttpmapper.FromDomainSession(account, session))
}

// Post /api/auth/logout
// Revokes the caller's bearer token
func (api *AuthAPI) Logout(c *gin.Context) {
	if err := api.service.Logout(c.Request.Context(), c.GetString(tokenContextKey)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
