package tools

import (
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/lexiqai/rag-agent/internal/document"
)

// Tool names exposed to the LLM
const (
	SearchDocuments = "search_documents"
	SearchWeb       = "search_web"
)

// Descriptor declares one callable tool and its argument schema
type Descriptor struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

// Result is the structured outcome of one tool call. It is serialized verbatim
// into the conversation, so results is always an array.
type Result struct {
	Success    bool                `json:"success"`
	Query      string              `json:"query,omitempty"`
	Results    []document.Document `json:"results"`
	TotalFound int                 `json:"total_found"`
	Error      string              `json:"error,omitempty"`
}

// ExecutionError describes a tool that failed while running
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Failure builds a failed result carrying message
func Failure(query, message string) Result {
	return Result{
		Success: false,
		Query:   query,
		Results: []document.Document{},
		Error:   message,
	}
}
