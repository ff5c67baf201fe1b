package opensearch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mstgnz/qualpay/infra/config"
)

func disabledClient() *Client {
	return &Client{
		config: &config.AppConfig{EnableLogging: false},
	}
}

func TestClient_GetLogIndexName(t *testing.T) {
	client := disabledClient()

	tests := []struct {
		name     string
		channel  string
		expected string
	}{
		{"gateway_channel", ChannelGateway, "qualpay-gateway-logs"},
		{"webhook_channel", ChannelWebhook, "qualpay-webhook-logs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, client.GetLogIndexName(tt.channel))
		})
	}
}

func TestClient_IsEnabled(t *testing.T) {
	enabled := &Client{config: &config.AppConfig{EnableLogging: true}}
	assert.True(t, enabled.IsEnabled())

	disabled := disabledClient()
	assert.False(t, disabled.IsEnabled())
}
