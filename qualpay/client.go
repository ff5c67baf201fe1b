package qualpay

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mstgnz/qualpay/infra/config"
	"github.com/mstgnz/qualpay/infra/logger"
)

const (
	apiSandboxURL    = "https://api-test.qualpay.com/"
	apiProductionURL = "https://api.qualpay.com/"

	defaultUserAgent   = "qualpay-go/1.0"
	defaultDeveloperID = "qualpay-go"
	defaultTimeout     = 30 * time.Second

	// UsdNumericISOCode is the numeric ISO 4217 code of USD, the only
	// currency the gateway accepts.
	UsdNumericISOCode = 840
)

// ClientOptions tunes the transport. The zero value is usable.
type ClientOptions struct {
	// Timeout bounds every request. A timed-out request has an unknown
	// outcome; it is never retried here.
	Timeout time.Duration

	// BaseURL overrides the sandbox/production host, for tests.
	BaseURL string

	// HTTPClient overrides the underlying client, for tests.
	HTTPClient *http.Client

	// DeveloperID identifies the integrating platform to Qualpay.
	DeveloperID string
}

// Client talks to the Qualpay Payment Gateway and Platform APIs. It holds
// only read-only configuration and is safe for concurrent use. Every request
// is attempted exactly once; the caller decides whether a retry is safe.
type Client struct {
	merchantID  int64
	securityKey string
	baseURL     string
	developerID string
	httpClient  *http.Client
}

// NewClient builds a client from gateway settings. The merchant id must
// parse as a positive integer; anything else is ErrNotConfigured.
func NewClient(settings config.Settings, opts ClientOptions) (*Client, error) {
	merchantID, err := strconv.ParseInt(settings.MerchantID, 10, 64)
	if err != nil || merchantID <= 0 {
		return nil, ErrNotConfigured
	}

	baseURL := apiProductionURL
	if settings.UseSandbox {
		baseURL = apiSandboxURL
	}
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}

	developerID := opts.DeveloperID
	if developerID == "" {
		developerID = defaultDeveloperID
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		}
	}

	return &Client{
		merchantID:  merchantID,
		securityKey: settings.SecurityKey,
		baseURL:     baseURL,
		developerID: developerID,
		httpClient:  httpClient,
	}, nil
}

// MerchantID returns the parsed merchant identifier.
func (c *Client) MerchantID() int64 { return c.merchantID }

// do executes one request against the API and decodes the JSON reply into
// out. Non-2xx replies are still decoded when possible so the caller can
// surface the gateway's own code and message.
func (c *Client) do(ctx context.Context, spec requestSpec, body, out any) error {
	if c.merchantID <= 0 {
		return ErrNotConfigured
	}

	op := spec.method + " " + spec.path

	var reqBody io.Reader
	if spec.method != http.MethodGet && body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, c.baseURL+spec.path, reqBody)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Authorization", "Basic "+c.authToken())
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("qualpay request failed", err, logger.LogContext{Operation: op})
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &TransportError{Op: op, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody)}
		}
		return &TransportError{Op: op, Err: fmt.Errorf("parse response: %w", err)}
	}

	return nil
}

// authToken builds the Basic credential: base64 of the security key followed
// by a colon and an empty password. The key is never logged or sent as a
// query parameter.
func (c *Client) authToken() string {
	return base64.StdEncoding.EncodeToString([]byte(c.securityKey + ":"))
}
