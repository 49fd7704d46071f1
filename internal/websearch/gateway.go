// Package websearch normalizes DuckDuckGo Instant Answer results into documents.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/document"
	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/resilience"
	"github.com/lexiqai/rag-agent/internal/websearch/duckduckgo"
)

const (
	gatewayName = "web_search"

	// MaxTitleLength is the rune prefix kept when a title is derived from topic text
	MaxTitleLength = 50

	quickAnswerTitle = "Quick Answer"
	fallbackTitle    = "Search performed"
	manualSearchURL  = "https://duckduckgo.com/?q="
)

// Searcher is the uniform web search interface
type Searcher interface {
	// Search returns between 1 and maxResults documents, or a SearchError
	Search(ctx context.Context, query string, maxResults int) ([]document.Document, error)
}

// InstantAnswerClient is the subset of the DuckDuckGo client the gateway needs
type InstantAnswerClient interface {
	Search(ctx context.Context, query string) (*duckduckgo.Response, error)
}

// SearchError reports a failed web search
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("web search failed for %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Gateway searches DuckDuckGo
type Gateway struct {
	client  InstantAnswerClient
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

// NewGateway wraps a client; breaker may be nil
func NewGateway(client InstantAnswerClient, breaker *resilience.CircuitBreaker) *Gateway {
	return &Gateway{
		client:  client,
		breaker: breaker,
		logger:  observability.ComponentLogger("websearch"),
	}
}

// New builds the DuckDuckGo gateway with the configured fixed timeout
func New(cfg *config.Config, breaker *resilience.CircuitBreaker) *Gateway {
	httpClient := &http.Client{Timeout: cfg.WebSearchTimeoutDuration()}
	return NewGateway(duckduckgo.New(cfg.WebSearchURL, cfg.WebSearchUserAgent, httpClient), breaker)
}

// Search queries the Instant Answer API. It always returns at least one document:
// when nothing usable comes back a manual-search pointer is synthesized.
func (g *Gateway) Search(ctx context.Context, query string, maxResults int) ([]document.Document, error) {
	if maxResults < 1 {
		maxResults = 1
	}
	// nothing to ask the backend; the manual-search pointer keeps the at-least-one guarantee
	if strings.TrimSpace(query) == "" {
		return []document.Document{fallback(query)}, nil
	}

	start := time.Now()
	var resp *duckduckgo.Response
	call := func() error {
		var err error
		resp, err = g.client.Search(ctx, query)
		return err
	}

	var err error
	if g.breaker != nil {
		err = g.breaker.CallContext(ctx, call)
	} else {
		err = call()
	}
	observability.RecordGatewayRequest(gatewayName, start, err == nil)

	if err != nil {
		class := resilience.Classify(err)
		observability.RecordError(class, gatewayName)
		g.logger.Warn().Err(err).Str("error_class", class).Str("query", query).Msg("Web search failed")
		return nil, &SearchError{Query: query, Err: err}
	}

	docs := normalize(query, resp, maxResults)
	g.logger.Debug().Str("query", query).Int("results", len(docs)).Dur("latency", time.Since(start)).Msg("Web search completed")
	return docs, nil
}

func normalize(query string, resp *duckduckgo.Response, maxResults int) []document.Document {
	docs := make([]document.Document, 0, maxResults)

	if resp.Abstract != "" {
		docs = append(docs, document.Document{
			Title:   quickAnswerTitle,
			Content: resp.Abstract,
			URL:     resp.AbstractURL,
			Source:  document.SourceWebSearch,
		})
	}

	// topic groups carry no Text of their own and are skipped
	topics := 0
	for _, topic := range resp.RelatedTopics {
		if topics >= maxResults-1 {
			break
		}
		if topic.Text == "" {
			continue
		}
		docs = append(docs, document.Document{
			Title:   document.Truncate(topic.Text, MaxTitleLength),
			Content: topic.Text,
			URL:     topic.FirstURL,
			Source:  document.SourceWebSearch,
		})
		topics++
	}

	if len(docs) == 0 {
		docs = append(docs, fallback(query))
	}
	if len(docs) > maxResults {
		docs = docs[:maxResults]
	}
	return docs
}

func fallback(query string) document.Document {
	return document.Document{
		Title:   fallbackTitle,
		Content: fmt.Sprintf("Searched for '%s' - check web manually for latest info", query),
		URL:     manualSearchURL + url.QueryEscape(query),
		Source:  document.SourceWebSearch,
	}
}
