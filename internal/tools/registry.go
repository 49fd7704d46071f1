// Package tools declares the tools offered to the LLM and dispatches calls to the gateways.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/lexiqai/rag-agent/internal/document"
	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/retrieval"
	"github.com/lexiqai/rag-agent/internal/websearch"
)

const (
	// DefaultResults is used when the LLM omits num_results or max_results
	DefaultResults = 5
	// MaxResults caps how many documents one call may request
	MaxResults = 20

	ragUnavailable = "RAG source not available"
)

type searchArgs struct {
	Query      string `mapstructure:"query"`
	NumResults int    `mapstructure:"num_results"`
	MaxResults int    `mapstructure:"max_results"`
}

// Registry holds the tools available for one session
type Registry struct {
	documents   retrieval.Gateway
	web         websearch.Searcher
	descriptors []Descriptor
	logger      zerolog.Logger
}

// NewRegistry builds the tool list. search_documents is only offered when
// the retrieval gateway is available; search_web is always offered.
func NewRegistry(documents retrieval.Gateway, web websearch.Searcher) *Registry {
	r := &Registry{
		documents: documents,
		web:       web,
		logger:    observability.ComponentLogger("tools"),
	}

	if documents != nil && documents.Available() {
		r.descriptors = append(r.descriptors, searchDocumentsDescriptor())
	}
	r.descriptors = append(r.descriptors, searchWebDescriptor())
	return r
}

// ListTools returns the descriptors in stable order
func (r *Registry) ListTools() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Has reports whether name is a registered tool
func (r *Registry) Has(name string) bool {
	for _, d := range r.descriptors {
		if d.Name == name {
			return true
		}
	}
	return false
}

// RAGAvailable reports whether the knowledge base tool is registered
func (r *Registry) RAGAvailable() bool {
	return r.Has(SearchDocuments)
}

// InvokeJSON decodes JSON-encoded arguments, as sent by the LLM, and invokes name
func (r *Registry) InvokeJSON(ctx context.Context, name, arguments string) Result {
	args := map[string]any{}
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			observability.RecordToolInvocation(name, false)
			return Failure("", fmt.Sprintf("invalid arguments for %s: %v", name, err))
		}
	}
	return r.Invoke(ctx, name, args)
}

// Invoke runs a tool. It never returns an error: every failure, including a
// panic inside the tool, is reported through a failed Result.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			err := &ExecutionError{Tool: name, Err: fmt.Errorf("panic: %v", rec)}
			r.logger.Error().Err(err).Msg("Tool panicked")
			result = Failure("", err.Error())
		}
		observability.RecordToolInvocation(name, result.Success)
	}()

	switch name {
	case SearchDocuments:
		return r.searchDocuments(ctx, args)
	case SearchWeb:
		return r.searchWeb(ctx, args)
	}
	return Failure("", "unknown tool: "+name)
}

func (r *Registry) searchDocuments(ctx context.Context, raw map[string]any) Result {
	args, err := decodeArgs(raw)
	if err != nil {
		return Failure("", err.Error())
	}
	if r.documents == nil || !r.documents.Available() {
		return Failure(args.Query, ragUnavailable)
	}

	docs, err := r.documents.Retrieve(ctx, args.Query, clamp(args.NumResults))
	if err != nil {
		if errors.Is(err, retrieval.ErrUnavailable) {
			return Failure(args.Query, ragUnavailable)
		}
		return Failure(args.Query, fmt.Sprintf("Error searching documents: %v", err))
	}
	return success(args.Query, docs)
}

func (r *Registry) searchWeb(ctx context.Context, raw map[string]any) Result {
	args, err := decodeArgs(raw)
	if err != nil {
		return Failure("", err.Error())
	}
	if r.web == nil {
		return Failure(args.Query, "web search not available")
	}

	docs, err := r.web.Search(ctx, args.Query, clamp(args.MaxResults))
	if err != nil {
		return Failure(args.Query, fmt.Sprintf("Error searching web: %v", err))
	}
	return success(args.Query, docs)
}

func success(query string, docs []document.Document) Result {
	if docs == nil {
		docs = []document.Document{}
	}
	return Result{
		Success:    true,
		Query:      query,
		Results:    docs,
		TotalFound: len(docs),
	}
}

func decodeArgs(raw map[string]any) (searchArgs, error) {
	var args searchArgs
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &args,
	})
	if err != nil {
		return args, err
	}
	if err := decoder.Decode(raw); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}

	args.Query = strings.TrimSpace(args.Query)
	if args.Query == "" {
		return args, errors.New("invalid arguments: query is required")
	}
	return args, nil
}

func clamp(n int) int {
	if n < 1 {
		return DefaultResults
	}
	if n > MaxResults {
		return MaxResults
	}
	return n
}

func searchDocumentsDescriptor() Descriptor {
	return Descriptor{
		Name:        SearchDocuments,
		Description: "Search through uploaded documents to find relevant information.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"query": {
					Type:        jsonschema.String,
					Description: "The search query to find relevant documents",
				},
				"num_results": {
					Type:        jsonschema.Integer,
					Description: "Number of documents to retrieve (default 5)",
				},
			},
			Required: []string{"query"},
		},
	}
}

func searchWebDescriptor() Descriptor {
	return Descriptor{
		Name:        SearchWeb,
		Description: "Search the internet for current information and news.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"query": {
					Type:        jsonschema.String,
					Description: "The search query for web search",
				},
				"max_results": {
					Type:        jsonschema.Integer,
					Description: "Maximum number of search results (default 5)",
				},
			},
			Required: []string{"query"},
		},
	}
}
