// Package sentiment calls an OpenAI-compatible chat-completions deployment
// for a free-text ticker read and extracts the Buy/Hold/Sell signal from it.
// The client is constructed once at process start and injected wherever a
// request needs it; there is no package-level singleton.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=sentiment_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one chat-completions deployment (Azure OpenAI style:
// endpoint + deployment name + api-version, key in the api-key header).
type Client struct {
	endpoint   string
	deployment string
	apiVersion string
	apiKey     string
	httpClient HTTPClient
}

// ClientOption is a configuration option for the sentiment client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAPIVersion overrides the api-version query parameter.
func WithAPIVersion(v string) ClientOption {
	return func(c *Client) {
		c.apiVersion = v
	}
}

// NewClient creates a sentiment client for one deployment.
func NewClient(endpoint, deployment, apiKey string, options ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("sentiment: endpoint is required")
	}
	if deployment == "" {
		return nil, fmt.Errorf("sentiment: deployment is required")
	}
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		deployment: deployment,
		apiVersion: "2023-07-01-preview",
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one user prompt and returns the model's free text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	u := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("completion failed: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Insight is one sentiment read for a ticker.
type Insight struct {
	Ticker         string         `json:"ticker"`
	Analysis       string         `json:"analysis"`
	Recommendation Recommendation `json:"recommendation"`
}

// Analyze asks the deployment for a sentiment read on the ticker that
// classification and retrieval used, so the recommendation and the chart
// are about the same identifier.
func (c *Client) Analyze(ctx context.Context, ticker string) (Insight, error) {
	headlines := fmt.Sprintf("Recent news about %s: price fluctuation, market sentiment, trading volume.", ticker)
	prompt := fmt.Sprintf(
		"Summarize recent crypto/stock sentiment for %s. News: %s. "+
			"Provide a summary, sentiment score (1-10), and clear Buy, Sell, or Hold recommendation.",
		ticker, headlines)

	text, err := c.Complete(ctx, prompt)
	if err != nil {
		return Insight{}, err
	}
	return Insight{
		Ticker:         ticker,
		Analysis:       text,
		Recommendation: ParseRecommendation(text),
	}, nil
}
