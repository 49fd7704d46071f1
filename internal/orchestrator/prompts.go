package orchestrator

import (
	"fmt"
	"strings"

	"github.com/lexiqai/rag-agent/internal/tools"
)

const (
	ragSystemPromptWithContext = "You are a helpful AI assistant. Use the provided context to answer the user's question. " +
		"If the context doesn't contain relevant information, say so and provide a general response based on your knowledge." +
		"\n\nContext:\n%s"

	ragSystemPromptNoContext = "You are a helpful AI assistant. Answer the user's question to the best of your ability."

	agentFailureAnswer = "Sorry, I encountered an error."
	chatFailureAnswer  = "I apologize, but I'm having trouble generating a response right now."
)

// agentSystemPrompt enumerates the registered tools
func agentSystemPrompt(descriptors []tools.Descriptor) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant with access to tools:\n\n")
	for i, d := range descriptors {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, d.Name, d.Description)
	}
	b.WriteString("\nUse tools when appropriate to provide better answers.")
	return b.String()
}

// ragSystemPrompt injects context, or omits the section entirely when there is none
func ragSystemPrompt(context string) string {
	if context == "" {
		return ragSystemPromptNoContext
	}
	return fmt.Sprintf(ragSystemPromptWithContext, context)
}
