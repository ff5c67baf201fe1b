package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/qualpay/infra/config"
	"github.com/mstgnz/qualpay/infra/response"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	settings  config.Settings
	startTime time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status     string        `json:"status"`
	Timestamp  time.Time     `json:"timestamp"`
	Uptime     string        `json:"uptime"`
	Gateway    GatewayHealth `json:"gateway"`
	Goroutines int           `json:"goroutines"`
}

// GatewayHealth reports whether the gateway credentials are configured.
type GatewayHealth struct {
	Configured bool   `json:"configured"`
	Sandbox    bool   `json:"sandbox"`
	Mode       string `json:"transaction_type"`
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(settings config.Settings) *HealthHandler {
	return &HealthHandler{
		settings:  settings,
		startTime: time.Now(),
	}
}

// HandleHealth returns the service health status
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Gateway: GatewayHealth{
			Configured: h.settings.MerchantID != "" && h.settings.SecurityKey != "",
			Sandbox:    h.settings.UseSandbox,
			Mode:       string(h.settings.TransactionType),
		},
		Goroutines: runtime.NumGoroutine(),
	}

	if !status.Gateway.Configured {
		status.Status = "degraded"
	}

	response.Success(w, http.StatusOK, "Health check completed", status)
}
