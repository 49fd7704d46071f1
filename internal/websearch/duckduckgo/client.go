// Package duckduckgo is an HTTP client for the DuckDuckGo Instant Answer API.
package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lexiqai/rag-agent/internal/resilience"
)

// DefaultBaseURL is the public Instant Answer endpoint
const DefaultBaseURL = "https://api.duckduckgo.com"

// Client provides methods to interact with the Instant Answer API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// New creates a client; httpClient carries the request timeout
func New(baseURL, userAgent string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// FlexibleString unmarshals both strings and numbers.
// The API returns image sizes as either.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler for FlexibleString
func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*fs = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*fs = FlexibleString(n.String())
		return nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*fs = FlexibleString(fmt.Sprintf("%v", v))
	return nil
}

// Response is the Instant Answer payload
type Response struct {
	Type           string         `json:"Type"`
	Heading        string         `json:"Heading"`
	Abstract       string         `json:"Abstract"`
	AbstractText   string         `json:"AbstractText"`
	AbstractSource string         `json:"AbstractSource"`
	AbstractURL    string         `json:"AbstractURL"`
	Answer         string         `json:"Answer"`
	AnswerType     string         `json:"AnswerType"`
	Image          string         `json:"Image"`
	ImageWidth     FlexibleString `json:"ImageWidth"`
	ImageHeight    FlexibleString `json:"ImageHeight"`
	RelatedTopics  []RelatedTopic `json:"RelatedTopics"`
}

// RelatedTopic is either a single topic (Text set) or a named group of topics
type RelatedTopic struct {
	Result   string         `json:"Result"`
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Icon     Icon           `json:"Icon"`
	Name     string         `json:"Name,omitempty"`
	Topics   []RelatedTopic `json:"Topics,omitempty"`
}

// Icon is a topic icon
type Icon struct {
	URL    string         `json:"URL"`
	Height FlexibleString `json:"Height"`
	Width  FlexibleString `json:"Width"`
}

// Search performs one Instant Answer query
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")
	reqURL := c.baseURL + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &resilience.StatusError{Service: "duckduckgo", StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &response, nil
}
