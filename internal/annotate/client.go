// Package annotate wraps the external inference models (summarization,
// sentiment, named-entity recognition) behind independently-failing calls
// with documented fallback values.
package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"newsloom/ingestor/internal/config"
)

// Entity is one recognized span, in order of appearance.
type Entity struct {
	Text  string  `json:"word"`
	Group string  `json:"entity_group"`
	Score float64 `json:"score"`
}

// Inference is the transport-level contract with the model sidecar.
type Inference interface {
	Health(ctx context.Context) error
	Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error)
	Sentiment(ctx context.Context, text string) (string, float64, error)
	Entities(ctx context.Context, text string) ([]Entity, error)
}

// Client talks to the inference sidecar over HTTP JSON.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ Inference = (*Client)(nil)

// NewClient creates a reusable HTTP client for the sidecar.
func NewClient(cfg config.InferenceConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		endpoint: cfg.URL,
		apiKey:   cfg.APIKey,
		http:     httpClient,
	}
}

// Health verifies the sidecar is up with its models loaded. A failure here
// is fatal for a run: no annotation is possible without models.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/health", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inference health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %s", resp.Status)
	}

	var health struct {
		ModelsLoaded bool `json:"models_loaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if !health.ModelsLoaded {
		return fmt.Errorf("inference models not loaded")
	}
	return nil
}

// Summarize requests a summary within the given length bounds.
func (c *Client) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	payload := map[string]any{
		"text":       text,
		"max_length": maxLength,
		"min_length": minLength,
	}

	var resp struct {
		SummaryText string `json:"summary_text"`
	}
	if err := c.post(ctx, "/v1/summarize", payload, &resp); err != nil {
		return "", err
	}
	return resp.SummaryText, nil
}

// Sentiment classifies the given text, returning label and score.
func (c *Client) Sentiment(ctx context.Context, text string) (string, float64, error) {
	var resp struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := c.post(ctx, "/v1/sentiment", map[string]any{"text": text}, &resp); err != nil {
		return "", 0, err
	}
	return resp.Label, resp.Score, nil
}

// Entities runs named-entity recognition, returning spans in order of
// appearance.
func (c *Client) Entities(ctx context.Context, text string) ([]Entity, error) {
	var resp struct {
		Entities []Entity `json:"entities"`
	}
	if err := c.post(ctx, "/v1/ner", map[string]any{"text": text}, &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
