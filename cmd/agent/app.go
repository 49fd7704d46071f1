package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/console"
	"github.com/lexiqai/rag-agent/internal/llm"
	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/orchestrator"
	"github.com/lexiqai/rag-agent/internal/report"
	"github.com/lexiqai/rag-agent/internal/resilience"
	"github.com/lexiqai/rag-agent/internal/retrieval"
	"github.com/lexiqai/rag-agent/internal/tools"
	"github.com/lexiqai/rag-agent/internal/websearch"
)

// app holds the collaborators every command is assembled from
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	retriever retrieval.Gateway
	web       *websearch.Gateway
	registry  *tools.Registry
	kbBreaker *resilience.CircuitBreaker
	wsBreaker *resilience.CircuitBreaker
}

// loadConfig reads configuration, validates it for mode and initializes logging
func loadConfig(mode config.Mode) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	// the console owns stdout in interactive modes, so JSON logs stay quiet unless asked for
	if mode != config.ModeServe && opts.LogLevel == "" && os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	observability.InitLogger(level, cfg.LogPretty || opts.Pretty)
	return cfg, nil
}

func newApp(mode config.Mode) (*app, error) {
	cfg, err := loadConfig(mode)
	if err != nil {
		return nil, err
	}

	kbBreaker := resilience.NewCircuitBreaker("knowledge_base", cfg.CircuitBreakerMaxFailures, cfg.CircuitBreakerResetDuration())
	wsBreaker := resilience.NewCircuitBreaker("web_search", cfg.CircuitBreakerMaxFailures, cfg.CircuitBreakerResetDuration())
	observability.TrackCircuitBreaker(kbBreaker)
	observability.TrackCircuitBreaker(wsBreaker)

	a := &app{
		cfg:       cfg,
		logger:    observability.GetLogger(),
		retriever: retrieval.New(cfg, kbBreaker),
		web:       websearch.New(cfg, wsBreaker),
		kbBreaker: kbBreaker,
		wsBreaker: wsBreaker,
	}
	a.registry = tools.NewRegistry(a.retriever, a.web)

	a.logger.Info().
		Str("mode", string(mode)).
		Str("model", cfg.LLMModel).
		Str("rag_source", cfg.RAGSource).
		Bool("rag_available", a.retriever.Available()).
		Msg("RAG agent starting")
	return a, nil
}

func (a *app) llmClient() llm.Client {
	return llm.NewOpenAIClient(a.cfg)
}

func (a *app) options() orchestrator.Options {
	return orchestrator.Options{
		Temperature:      a.cfg.LLMTemperature,
		NumResults:       a.cfg.RetrievalNumResults,
		MaxDocumentChars: a.cfg.ContextMaxDocChars,
	}
}

// healthChecks back /ready and the gRPC health service
func (a *app) healthChecks() map[string]observability.HealthCheckFunc {
	checks := map[string]observability.HealthCheckFunc{
		"llm": func(context.Context) (bool, error) {
			if !a.cfg.OpenAIConfigured() {
				return false, fmt.Errorf("OPENAI_API_KEY is not set")
			}
			return true, nil
		},
		"web_search": breakerCheck(a.wsBreaker),
	}
	if a.cfg.RetrievalEnabled() {
		checks["knowledge_base"] = func(ctx context.Context) (bool, error) {
			if !a.retriever.Available() {
				return false, retrieval.ErrUnavailable
			}
			return breakerCheck(a.kbBreaker)(ctx)
		}
	}
	return checks
}

func breakerCheck(cb *resilience.CircuitBreaker) observability.HealthCheckFunc {
	return func(context.Context) (bool, error) {
		if !cb.Allows() {
			return false, resilience.ErrCircuitOpen
		}
		return true, nil
	}
}

// announce reports the available tools and knowledge base state to sink
func (a *app) announce(sink report.Sink, title string) {
	if cs, ok := sink.(*console.Sink); ok {
		cs.Banner(title, "Type 'quit', 'exit' or 'q' to leave")
	}

	names := make([]string, 0)
	for _, d := range a.registry.ListTools() {
		names = append(names, d.Name)
	}
	sink.Report(report.Info, "Available tools: "+strings.Join(names, ", "))
	if a.retriever.Available() {
		sink.Report(report.Success, "Knowledge base connected")
	} else {
		sink.Report(report.Warning, "Knowledge base not available; answering without document retrieval")
	}
}
