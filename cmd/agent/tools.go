package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/console"
	"github.com/lexiqai/rag-agent/internal/document"
	"github.com/lexiqai/rag-agent/internal/report"
	"github.com/lexiqai/rag-agent/internal/tools"
)

// ToolsCmd invokes every registered tool directly
type ToolsCmd struct {
	Query      string `long:"query" description:"query sent to every tool" default:"What is retrieval-augmented generation?"`
	MaxResults int    `short:"n" long:"max-results" description:"results requested per tool" default:"3"`
}

func (c *ToolsCmd) Execute(_ []string) error {
	a, err := newApp(config.ModeTools)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := console.NewSink(os.Stdout)
	a.announce(sink, "Tool check")
	checkTools(ctx, a.registry, sink, c.Query, c.MaxResults)
	return nil
}

// checkTools runs each tool once and reports what came back
func checkTools(ctx context.Context, registry *tools.Registry, sink report.Sink, query string, maxResults int) {
	for _, d := range registry.ListTools() {
		sink.Report(report.Loading, fmt.Sprintf("Executing %s...", d.Name))

		args := map[string]any{"query": query}
		switch d.Name {
		case tools.SearchDocuments:
			args["num_results"] = maxResults
		case tools.SearchWeb:
			args["max_results"] = maxResults
		}

		result := registry.Invoke(ctx, d.Name, args)
		if !result.Success {
			sink.Report(report.Warning, fmt.Sprintf("Tool %s failed: %s", d.Name, result.Error))
			continue
		}
		sink.Report(report.Success, fmt.Sprintf("%s returned %d results", d.Name, result.TotalFound))
		for i, doc := range result.Results {
			sink.Report(report.Info, fmt.Sprintf("%d. %s", i+1, describe(doc)))
		}
	}
}

func describe(doc document.Document) string {
	label := doc.Title
	if label == "" {
		label = document.Truncate(doc.Content, 80)
	}
	if doc.URL != "" {
		label += " (" + doc.URL + ")"
	}
	return label
}
