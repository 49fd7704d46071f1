package llm

import (
	"context"
	"fmt"

	"github.com/lexiqai/rag-agent/internal/tools"
)

// Role is a conversation message role
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolChoiceAuto lets the model decide whether to call a tool
const ToolChoiceAuto = "auto"

// ToolCall is one function call requested by the model
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON-encoded
}

// Message is one entry of the conversation sent to the model
type Message struct {
	Role       Role
	Content    string
	ToolCallID string     // set on tool messages
	ToolName   string     // set on tool messages
	ToolCalls  []ToolCall // set on assistant messages requesting tools
}

// Request is one completion call. Tools nil means the model cannot call tools.
type Request struct {
	Messages    []Message
	Tools       []tools.Descriptor
	ToolChoice  string
	Temperature float32
}

// Response is the first choice of a completion
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Client performs chat completions
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Model() string
}

// CallError reports a failed completion call
type CallError struct {
	Model string
	Err   error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("LLM call to %s failed: %v", e.Model, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
