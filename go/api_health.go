package storefrontserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthAPI reports process and dependency health.
type HealthAPI struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthAPI creates a HealthAPI running the named checks.
func NewHealthAPI(checks map[string]HealthCheck) HealthAPI {
	return HealthAPI{checks: checks, timeout: 2 * time.Second}
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Get /healthz
// Report liveness and dependency status
func (api *HealthAPI) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), api.timeoutOrDefault())
	defer cancel()
	response := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(api.checks) > 0 {
		response.Checks = make(map[string]string, len(api.checks))
	}
	for name, check := range api.checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			response.Checks[name] = err.Error()
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "ok"
	}
	c.JSON(status, response)
}

func (api *HealthAPI) timeoutOrDefault() time.Duration {
	if api.timeout <= 0 {
		return 2 * time.Second
	}
	return api.timeout
}
