package storefrontserver

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's principal on the request context.
func Authenticate(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || authenticator == nil {
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail("a bearer token is required"))
			c.Abort()
			return
		}
		principal, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(tokenContextKey, token)
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.FromContext(c.Request.Context())
		if !ok {
			respondProblem(c, apierrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !principal.IsAdmin {
			respondProblem(c, apierrors.ErrForbidden.WithDetail("administrator role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

const tokenContextKey = "storefront.token"

var errNoPrincipal = errors.New("request is not authenticated")

func principalFrom(c *gin.Context) (auth.Principal, error) {
	principal, ok := auth.FromContext(c.Request.Context())
	if !ok {
		return auth.Principal{}, errNoPrincipal
	}
	return principal, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
