package orchestrator

import (
	"context"
	"fmt"

	"github.com/lexiqai/rag-agent/internal/document"
	"github.com/lexiqai/rag-agent/internal/llm"
	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/report"
	"github.com/lexiqai/rag-agent/internal/retrieval"
)

const documentPreviewChars = 200

// RAGChat is the fixed pipeline: retrieve, format context, one completion call
type RAGChat struct {
	llm       llm.Client
	retriever retrieval.Gateway
	formatter document.Formatter
	sink      report.Sink
	opts      Options
}

// NewRAGChat creates the default chat mode. retriever may be nil or unavailable,
// in which case every answer is generated without context.
func NewRAGChat(client llm.Client, retriever retrieval.Gateway, sink report.Sink, opts Options) *RAGChat {
	if sink == nil {
		sink = report.Discard
	}
	if opts.NumResults < 1 {
		opts.NumResults = DefaultOptions().NumResults
	}
	return &RAGChat{
		llm:       client,
		retriever: retriever,
		formatter: document.Formatter{MaxDocumentChars: opts.MaxDocumentChars},
		sink:      sink,
		opts:      opts,
	}
}

// RAGAvailable reports whether answers can use the knowledge base
func (c *RAGChat) RAGAvailable() bool {
	return c.retriever != nil && c.retriever.Available()
}

// Run answers one question, degrading to a context-free answer when retrieval fails
func (c *RAGChat) Run(ctx context.Context, question string) (*Turn, error) {
	turn := &Turn{ID: observability.NewCorrelationID(), Question: question}
	logger := observability.WithCorrelationID(turn.ID).With().Str("mode", ModeChat).Logger()
	metrics := observability.NewTurnMetrics(ModeChat)

	c.sink.Report(report.Question, question)

	var docs []document.Document
	if c.RAGAvailable() {
		c.sink.Report(report.Loading, "Searching knowledge base...")
		var err error
		docs, err = c.retriever.Retrieve(ctx, question, c.opts.NumResults)
		if err != nil {
			logger.Warn().Err(err).Msg("Continuing without context")
			c.sink.Report(report.Warning, fmt.Sprintf("Failed to retrieve documents: %v", err))
			docs = nil
		} else {
			c.reportDocuments(docs)
		}
	}

	turn.Messages = []llm.Message{
		{Role: llm.RoleSystem, Content: ragSystemPrompt(c.formatter.Format(docs))},
		{Role: llm.RoleUser, Content: question},
	}

	c.sink.Report(report.Loading, "Generating response...")
	turn.Completions++
	metrics.RecordLLMStart()
	resp, err := c.llm.Complete(ctx, llm.Request{
		Messages:    append([]llm.Message(nil), turn.Messages...),
		Temperature: c.opts.Temperature,
	})
	metrics.RecordLLMEnd(c.llm.Model(), err == nil)

	if err != nil {
		logger.Error().Err(err).Msg("Turn failed")
		observability.RecordError("llm_call", "ragchat")
		metrics.RecordTurnEnd(false)
		c.sink.Report(report.Error, fmt.Sprintf("Failed to generate response: %v", err))
		turn.Answer = chatFailureAnswer
		c.sink.Report(report.Answer, turn.Answer)
		return turn, err
	}

	turn.Answer = resp.Content
	turn.Messages = append(turn.Messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
	metrics.RecordTurnEnd(true)
	logger.Info().Int("documents", len(docs)).Msg("Turn completed")
	c.sink.Report(report.Answer, turn.Answer)
	return turn, nil
}

func (c *RAGChat) reportDocuments(docs []document.Document) {
	if len(docs) == 0 {
		c.sink.Report(report.Info, "No relevant documents found")
		return
	}

	c.sink.Report(report.Success, fmt.Sprintf("Found %d relevant documents", len(docs)))
	for i, d := range docs {
		score := "N/A"
		if d.Score != nil {
			score = fmt.Sprintf("%.3f", *d.Score)
		}
		c.sink.Report(report.Info, fmt.Sprintf("Document %d (score: %s): %s", i+1, score, document.Truncate(d.Content, documentPreviewChars)))
	}
}
