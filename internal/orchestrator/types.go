package orchestrator

import (
	"github.com/lexiqai/rag-agent/internal/llm"
	"github.com/lexiqai/rag-agent/internal/tools"
)

// Mode names used for metrics and logs
const (
	ModeAgent = "agent"
	ModeChat  = "chat"
)

// Options tunes both chat variants
type Options struct {
	Temperature float32
	// NumResults is the fixed retrieval count used by the RAG chat
	NumResults int
	// MaxDocumentChars bounds each document in the prompt context; 0 means unbounded
	MaxDocumentChars int
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		Temperature:      0.7,
		NumResults:       5,
		MaxDocumentChars: 4000,
	}
}

// ToolExecution pairs a requested tool call with its result
type ToolExecution struct {
	Call   llm.ToolCall
	Result tools.Result
}

// Turn is the outcome of one question-to-answer exchange
type Turn struct {
	ID          string
	Question    string
	Answer      string
	Messages    []llm.Message
	Tools       []ToolExecution
	Completions int
}
