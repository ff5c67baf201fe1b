package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// AuditLog is a structured audit entry for one gateway call or one webhook
// delivery.
type AuditLog struct {
	Timestamp   time.Time       `json:"timestamp"`
	Operation   string          `json:"operation"`
	RequestID   string          `json:"request_id"`
	OrderGUID   string          `json:"order_guid,omitempty"`
	ClientIP    string          `json:"client_ip,omitempty"`
	Request     RequestLog      `json:"request"`
	Response    ResponseLog     `json:"response"`
	Transaction TransactionInfo `json:"transaction,omitempty"`
	Error       ErrorInfo       `json:"error,omitempty"`
}

// RequestLog represents request details
type RequestLog struct {
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`
	Body   string `json:"body,omitempty"`
}

// ResponseLog represents response details
type ResponseLog struct {
	StatusCode       int    `json:"status_code"`
	Body             string `json:"body,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// TransactionInfo carries the payment facts of an audited call
type TransactionInfo struct {
	TransactionID string  `json:"transaction_id,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogAudit writes one audit entry to the given channel
func (l *Logger) LogAudit(ctx context.Context, channel string, log AuditLog) error {
	if !l.client.IsEnabled() {
		return nil // Logging disabled
	}

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	if log.RequestID == "" {
		log.RequestID = uuid.New().String()
	}

	indexName := l.client.GetLogIndexName(channel)

	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// SearchLogs searches audit logs in a channel based on criteria
func (l *Logger) SearchLogs(ctx context.Context, channel string, query map[string]any) ([]AuditLog, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	indexName := l.client.GetLogIndexName(channel)

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source AuditLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]AuditLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}

	return logs, nil
}

// GetTransactionLogs retrieves gateway logs for a specific transaction id
func (l *Logger) GetTransactionLogs(ctx context.Context, transactionID string) ([]AuditLog, error) {
	query := map[string]any{
		"match": map[string]any{
			"transaction.transaction_id": transactionID,
		},
	}

	return l.SearchLogs(ctx, ChannelGateway, query)
}

// GetRecentErrorLogs retrieves recent error logs for a channel
func (l *Logger) GetRecentErrorLogs(ctx context.Context, channel string, hours int) ([]AuditLog, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{
					"range": map[string]any{
						"timestamp": map[string]any{
							"gte": fmt.Sprintf("now-%dh", hours),
						},
					},
				},
				{
					"exists": map[string]any{
						"field": "error.code",
					},
				},
			},
		},
	}

	return l.SearchLogs(ctx, channel, query)
}

// GetChannelStats retrieves call statistics for a channel
func (l *Logger) GetChannelStats(ctx context.Context, channel string, hours int) (map[string]any, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	indexName := l.client.GetLogIndexName(channel)

	aggQuery := map[string]any{
		"query": map[string]any{
			"range": map[string]any{
				"timestamp": map[string]any{
					"gte": fmt.Sprintf("now-%dh", hours),
				},
			},
		},
		"aggs": map[string]any{
			"total_requests": map[string]any{
				"value_count": map[string]any{
					"field": "request_id",
				},
			},
			"success_count": map[string]any{
				"filter": map[string]any{
					"range": map[string]any{
						"response.status_code": map[string]any{
							"gte": 200,
							"lt":  300,
						},
					},
				},
			},
			"error_count": map[string]any{
				"filter": map[string]any{
					"exists": map[string]any{
						"field": "error.code",
					},
				},
			},
			"avg_processing_time": map[string]any{
				"avg": map[string]any{
					"field": "response.processing_time_ms",
				},
			},
			"status_codes": map[string]any{
				"terms": map[string]any{
					"field": "response.status_code",
					"size":  10,
				},
			},
		},
		"size": 0, // We only want aggregations
	}

	queryJSON, err := json.Marshal(aggQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal aggregation query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("aggregation search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch aggregation error: %s", res.String())
	}

	var result map[string]any
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation results: %w", err)
	}

	return result, nil
}

// SanitizeForLog removes sensitive information from data before logging
func SanitizeForLog(data string) string {
	sensitiveFields := []string{
		"card_number", "cardNumber", "cvv2", "cvv", "cardholder_name",
		"security_key", "securityKey", "secret", "password", "token",
		"authorization", "exp_date",
	}

	result := data
	for _, field := range sensitiveFields {
		patterns := []string{
			fmt.Sprintf(`"%s"\s*:\s*"[^"]*"`, field), // JSON format with double quotes
			fmt.Sprintf(`"%s"\s*:\s*'[^']*'`, field), // JSON format with single quotes
			fmt.Sprintf(`%s=\w+`, field),             // URL parameter format
		}

		for _, pattern := range patterns {
			re := regexp.MustCompile(pattern)
			result = re.ReplaceAllString(result, fmt.Sprintf(`"%s":"***REDACTED***"`, field))
		}
	}

	return result
}

// LogSystemEvent logs a system event to OpenSearch
func (l *Logger) LogSystemEvent(ctx context.Context, log any) error {
	if !l.client.IsEnabled() {
		return nil // Logging disabled
	}

	indexName := "qualpay-system-logs"

	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal system log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index system log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch system log error: %s", res.String())
	}

	return nil
}
