package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mstgnz/qualpay/infra/config"
)

func TestHandleHealth(t *testing.T) {
	h := NewHealthHandler(config.Settings{
		MerchantID:  "212000000001",
		SecurityKey: "sk-test-key",
		UseSandbox:  true,
	})

	rr := httptest.NewRecorder()
	h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    HealthStatus `json:"data"`
	}
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", resp.Data.Status)
	assert.True(t, resp.Data.Gateway.Configured)
	assert.True(t, resp.Data.Gateway.Sandbox)
}

func TestHandleHealth_Degraded(t *testing.T) {
	h := NewHealthHandler(config.Settings{})

	rr := httptest.NewRecorder()
	h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data HealthStatus `json:"data"`
	}
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "degraded", resp.Data.Status)
	assert.False(t, resp.Data.Gateway.Configured)
}
