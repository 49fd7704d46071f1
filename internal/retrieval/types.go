package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexiqai/rag-agent/internal/document"
)

// ErrUnavailable is wrapped by RetrievalError when no knowledge base is configured
var ErrUnavailable = errors.New("knowledge base not available")

// Gateway is the uniform interface to a document knowledge base
type Gateway interface {
	// Retrieve returns up to count documents in rank order; count must be at least 1
	Retrieve(ctx context.Context, query string, count int) ([]document.Document, error)

	// Available reports whether the backing service was constructed successfully
	Available() bool
}

// RetrievalError reports a failed knowledge base query
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for %q: %v", e.Query, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Unavailable is the gateway used when the knowledge base could not be set up
type Unavailable struct {
	Reason error
}

// Available always reports false
func (u Unavailable) Available() bool {
	return false
}

// Retrieve always fails with ErrUnavailable
func (u Unavailable) Retrieve(_ context.Context, query string, _ int) ([]document.Document, error) {
	err := ErrUnavailable
	if u.Reason != nil {
		err = fmt.Errorf("%w: %v", ErrUnavailable, u.Reason)
	}
	return nil, &RetrievalError{Query: query, Err: err}
}
