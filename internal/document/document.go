// Package document holds the normalized retrieval result shared by every gateway
// and renders result sets into prompt context.
package document

// Source identifies the backend a document came from
type Source string

const (
	SourceKnowledgeBase Source = "knowledge_base"
	SourceWebSearch     Source = "web_search"
)

// Document is one retrieved snippet, normalized across backends.
// Title and URL are only set for web results.
type Document struct {
	Title   string   `json:"title,omitempty" mapstructure:"title"`
	Content string   `json:"content" mapstructure:"content"`
	URL     string   `json:"url,omitempty" mapstructure:"url"`
	Score   *float64 `json:"score,omitempty" mapstructure:"score"`
	Source  Source   `json:"source" mapstructure:"source"`
}

// Score returns a pointer suitable for Document.Score
func Score(v float64) *float64 {
	return &v
}
