package document

import (
	"fmt"
	"strings"
)

const emptyContent = "No content available"

// Formatter renders documents as numbered context blocks for prompt injection
type Formatter struct {
	// MaxDocumentChars bounds each document's content in runes; 0 means unbounded
	MaxDocumentChars int
}

// Format renders documents with an unbounded formatter
func Format(docs []Document) string {
	return Formatter{}.Format(docs)
}

// Format returns "" for no documents, otherwise "Document k: <content>" blocks
// separated by a blank line, in input order.
func (f Formatter) Format(docs []Document) string {
	if len(docs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			content = emptyContent
		}
		parts = append(parts, fmt.Sprintf("Document %d: %s", i+1, Truncate(content, f.MaxDocumentChars)))
	}
	return strings.Join(parts, "\n\n")
}

// Truncate cuts s to max runes and appends "..." when it was longer. max <= 0 leaves s untouched.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
