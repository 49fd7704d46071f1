package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/document"
	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/resilience"
	"github.com/lexiqai/rag-agent/internal/vectorize"
)

const gatewayName = "knowledge_base"

// DocumentRetriever is the subset of the Vectorize client used for retrieval
type DocumentRetriever interface {
	RetrieveDocuments(ctx context.Context, question string, numResults int) ([]vectorize.Document, error)
}

// VectorizeGateway retrieves from a Vectorize pipeline
type VectorizeGateway struct {
	client  DocumentRetriever
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

// NewVectorizeGateway wraps a retriever; breaker may be nil
func NewVectorizeGateway(client DocumentRetriever, breaker *resilience.CircuitBreaker) *VectorizeGateway {
	return &VectorizeGateway{
		client:  client,
		breaker: breaker,
		logger:  observability.ComponentLogger("retrieval"),
	}
}

// New builds the gateway selected by cfg.RAGSource. It never fails: when the knowledge
// base cannot be used the returned gateway reports itself unavailable.
func New(cfg *config.Config, breaker *resilience.CircuitBreaker) Gateway {
	if !cfg.RetrievalEnabled() {
		return Unavailable{Reason: errors.New("RAG_SOURCE disables the knowledge base or credentials are missing")}
	}

	client, err := vectorize.NewClient(cfg, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return Unavailable{Reason: err}
	}
	if !client.HasPipeline() {
		return Unavailable{Reason: errors.New("VECTORIZE_PIPELINE_ID is not set")}
	}
	return NewVectorizeGateway(client, breaker)
}

// Available reports true; an unconfigured knowledge base uses Unavailable instead
func (g *VectorizeGateway) Available() bool {
	return true
}

// Retrieve queries the pipeline and normalizes results to knowledge base documents
func (g *VectorizeGateway) Retrieve(ctx context.Context, query string, count int) ([]document.Document, error) {
	if count < 1 {
		return nil, &RetrievalError{Query: query, Err: fmt.Errorf("count must be at least 1, got %d", count)}
	}

	start := time.Now()
	var raw []vectorize.Document
	call := func() error {
		var err error
		raw, err = g.client.RetrieveDocuments(ctx, query, count)
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
		g.logger.Warn().Err(err).Str("error_class", class).Str("query", query).Msg("Knowledge base retrieval failed")
		return nil, &RetrievalError{Query: query, Err: err}
	}

	docs := make([]document.Document, 0, len(raw))
	for _, d := range raw {
		docs = append(docs, document.Document{
			Content: d.Text,
			Score:   d.BestScore(),
			Source:  document.SourceKnowledgeBase,
		})
		if len(docs) == count {
			break
		}
	}

	g.logger.Debug().Str("query", query).Int("documents", len(docs)).Dur("latency", time.Since(start)).Msg("Retrieved documents")
	return docs, nil
}
