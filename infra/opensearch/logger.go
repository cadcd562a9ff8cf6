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

// FlowLog represents one stage of a donation flow
type FlowLog struct {
	Timestamp time.Time    `json:"timestamp"`
	Form      string       `json:"form,omitempty"`
	Provider  string       `json:"provider"`
	Stage     string       `json:"stage"`
	RequestID string       `json:"request_id"`
	ClientIP  string       `json:"client_ip,omitempty"`
	Donation  DonationInfo `json:"donation,omitempty"`
	Error     ErrorInfo    `json:"error,omitempty"`
}

// DonationInfo represents donation-specific information
type DonationInfo struct {
	Reference string  `json:"reference,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Frequency string  `json:"frequency,omitempty"`
	Purpose   string  `json:"purpose,omitempty"`
	Mode      string  `json:"mode,omitempty"`
	Email     string  `json:"email,omitempty"`
	Status    string  `json:"status,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Kind    string `json:"kind,omitempty"`
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

// LogFlowEvent logs one donation flow stage to OpenSearch
func (l *Logger) LogFlowEvent(ctx context.Context, log FlowLog) error {
	if !l.client.IsEnabled() {
		return nil // Logging disabled
	}

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	if log.RequestID == "" {
		log.RequestID = uuid.New().String()
	}

	indexName := l.client.GetLogIndexName(log.Provider)

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

// SearchLogs searches for donation flow logs based on criteria
func (l *Logger) SearchLogs(ctx context.Context, provider string, query map[string]any) ([]FlowLog, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	indexName := l.client.GetLogIndexName(provider)

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100, // Limit results
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
				Source FlowLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]FlowLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}

	return logs, nil
}

// GetDonationLogs retrieves logs for a specific reference number
func (l *Logger) GetDonationLogs(ctx context.Context, provider, reference string) ([]FlowLog, error) {
	query := map[string]any{
		"match": map[string]any{
			"donation.reference": reference,
		},
	}

	return l.SearchLogs(ctx, provider, query)
}

// GetRecentErrorLogs retrieves recent error logs for a provider
func (l *Logger) GetRecentErrorLogs(ctx context.Context, provider string, hours int) ([]FlowLog, error) {
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
						"field": "error.kind",
					},
				},
			},
		},
	}

	return l.SearchLogs(ctx, provider, query)
}

// SanitizeForLog removes sensitive information from data before logging
func SanitizeForLog(data string) string {
	sensitiveFields := []string{
		"secret_key", "api_password", "api_signature", "access_token",
		"pairing_code", "password", "token", "authorization",
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

	indexName := "donate-system-logs"

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
