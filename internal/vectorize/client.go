// Package vectorize is an HTTP client for the Vectorize document pipeline API:
// retrieval against a pipeline and the two-step file upload.
package vectorize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/resilience"
)

const serviceName = "vectorize"

// ErrNotConfigured is returned when the organization or access token is missing
var ErrNotConfigured = errors.New("vectorize credentials not configured")

// Client talks to the Vectorize REST API
type Client struct {
	apiURL         string
	organizationID string
	pipelineID     string
	accessToken    string
	httpClient     *http.Client
}

// NewClient creates a Vectorize client from configuration.
// The pipeline ID is optional here; uploads do not need it.
func NewClient(cfg *config.Config, httpClient *http.Client) (*Client, error) {
	if cfg.VectorizeOrganizationID == "" || cfg.VectorizePipelineAccessToken == "" {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		apiURL:         strings.TrimRight(cfg.VectorizeAPIURL, "/"),
		organizationID: cfg.VectorizeOrganizationID,
		pipelineID:     cfg.VectorizePipelineID,
		accessToken:    cfg.VectorizePipelineAccessToken,
		httpClient:     httpClient,
	}, nil
}

// HasPipeline reports whether retrieval can be performed
func (c *Client) HasPipeline() bool {
	return c.pipelineID != ""
}

// RetrieveDocuments queries the pipeline for the chunks most relevant to question
func (c *Client) RetrieveDocuments(ctx context.Context, question string, numResults int) ([]Document, error) {
	if !c.HasPipeline() {
		return nil, fmt.Errorf("VECTORIZE_PIPELINE_ID is not set")
	}

	endpoint := fmt.Sprintf("%s/org/%s/pipelines/%s/retrieval",
		c.apiURL, url.PathEscape(c.organizationID), url.PathEscape(c.pipelineID))

	var out RetrievalResponse
	if err := c.postJSON(ctx, endpoint, RetrievalRequest{Question: question, NumResults: numResults}, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// StartFileUpload registers a file with the organization and returns where to PUT its bytes
func (c *Client) StartFileUpload(ctx context.Context, name, contentType string) (*StartFileUploadResponse, error) {
	endpoint := fmt.Sprintf("%s/org/%s/files", c.apiURL, url.PathEscape(c.organizationID))

	var out StartFileUploadResponse
	if err := c.postJSON(ctx, endpoint, StartFileUploadRequest{ContentType: contentType, Name: name}, &out); err != nil {
		return nil, err
	}
	if out.UploadURL == "" {
		return nil, fmt.Errorf("vectorize returned no upload URL for %s", name)
	}
	return &out, nil
}

// PutFile sends the raw file bytes to a pre-signed upload URL
func (c *Client) PutFile(ctx context.Context, uploadURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &resilience.StatusError{Service: "upload", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &resilience.StatusError{Service: serviceName, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(truncateBody(body)))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncateBody(b []byte) []byte {
	if len(b) > 512 {
		return b[:512]
	}
	return b
}
