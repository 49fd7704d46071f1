// Package orchestrator runs chat turns: the tool-calling agent and the fixed RAG pipeline.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lexiqai/rag-agent/internal/llm"
	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/report"
	"github.com/lexiqai/rag-agent/internal/tools"
)

// Agent lets the model choose tools before answering.
// A turn makes at most two completion calls: one offering tools, one without.
type Agent struct {
	llm      llm.Client
	registry *tools.Registry
	sink     report.Sink
	opts     Options
}

// NewAgent creates a tool-calling agent reporting to sink
func NewAgent(client llm.Client, registry *tools.Registry, sink report.Sink, opts Options) *Agent {
	if sink == nil {
		sink = report.Discard
	}
	return &Agent{
		llm:      client,
		registry: registry,
		sink:     sink,
		opts:     opts,
	}
}

// Run answers one question. On an LLM failure the returned turn carries the
// generic failure answer together with the *llm.CallError.
func (a *Agent) Run(ctx context.Context, question string) (*Turn, error) {
	turn := &Turn{ID: observability.NewCorrelationID(), Question: question}
	logger := observability.WithCorrelationID(turn.ID).With().Str("mode", ModeAgent).Logger()
	metrics := observability.NewTurnMetrics(ModeAgent)
	sm := newStateMachine(logger)

	a.sink.Report(report.Question, question)

	descriptors := a.registry.ListTools()
	turn.Messages = []llm.Message{
		{Role: llm.RoleSystem, Content: agentSystemPrompt(descriptors)},
		{Role: llm.RoleUser, Content: question},
	}

	sm.to(StateAwaitFirstCompletion)
	a.sink.Report(report.Loading, "Thinking...")
	first, err := a.complete(ctx, turn, metrics, llm.Request{
		Messages:    turn.Messages,
		Tools:       descriptors,
		ToolChoice:  llm.ToolChoiceAuto,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		sm.to(StateDone)
		return a.fail(turn, metrics, logger, err)
	}

	if len(first.ToolCalls) == 0 {
		sm.to(StateDirectAnswer)
		turn.Answer = first.Content
		turn.Messages = append(turn.Messages, llm.Message{Role: llm.RoleAssistant, Content: first.Content})
		sm.to(StateDone)
		return a.finish(turn, metrics, logger), nil
	}

	sm.to(StateToolsRequested)
	turn.Messages = append(turn.Messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})

	sm.to(StateExecutingTools)
	for _, call := range first.ToolCalls {
		result := a.execute(ctx, call, logger)
		turn.Tools = append(turn.Tools, ToolExecution{Call: call, Result: result})
		turn.Messages = append(turn.Messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    encodeResult(result),
			ToolCallID: call.ID,
			ToolName:   call.Name,
		})
	}

	sm.to(StateAwaitFinalCompletion)
	a.sink.Report(report.Loading, "Generating final response...")
	final, err := a.complete(ctx, turn, metrics, llm.Request{
		Messages:    turn.Messages,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		sm.to(StateDone)
		return a.fail(turn, metrics, logger, err)
	}

	turn.Answer = final.Content
	turn.Messages = append(turn.Messages, llm.Message{Role: llm.RoleAssistant, Content: final.Content})
	sm.to(StateDone)
	return a.finish(turn, metrics, logger), nil
}

func (a *Agent) complete(ctx context.Context, turn *Turn, metrics *observability.TurnMetrics, req llm.Request) (llm.Response, error) {
	// the request gets its own copy so later appends never alias it
	req.Messages = append([]llm.Message(nil), req.Messages...)

	turn.Completions++
	metrics.RecordLLMStart()
	resp, err := a.llm.Complete(ctx, req)
	metrics.RecordLLMEnd(a.llm.Model(), err == nil)
	return resp, err
}

// execute runs one tool call. Failures become failed results and never abort the turn.
func (a *Agent) execute(ctx context.Context, call llm.ToolCall, logger zerolog.Logger) tools.Result {
	a.sink.Report(report.Info, "Using tool: "+call.Name)
	a.sink.Report(report.Loading, "Executing "+call.Name+"...")

	result := a.registry.InvokeJSON(ctx, call.Name, call.Arguments)

	if result.Success {
		a.sink.Report(report.Success, successMessage(call.Name, result))
	} else {
		a.sink.Report(report.Warning, fmt.Sprintf("Tool %s failed: %s", call.Name, result.Error))
		logger.Warn().Str("tool", call.Name).Str("tool_call_id", call.ID).Str("error", result.Error).Msg("Tool call failed")
	}
	return result
}

func (a *Agent) fail(turn *Turn, metrics *observability.TurnMetrics, logger zerolog.Logger, err error) (*Turn, error) {
	logger.Error().Err(err).Int("completions", turn.Completions).Msg("Turn failed")
	observability.RecordError("llm_call", "orchestrator")
	metrics.RecordTurnEnd(false)

	turn.Answer = agentFailureAnswer
	a.sink.Report(report.Error, agentFailureAnswer)
	return turn, err
}

func (a *Agent) finish(turn *Turn, metrics *observability.TurnMetrics, logger zerolog.Logger) *Turn {
	metrics.RecordTurnEnd(true)
	logger.Info().Int("completions", turn.Completions).Int("tool_calls", len(turn.Tools)).Msg("Turn completed")
	a.sink.Report(report.Answer, turn.Answer)
	return turn
}

func successMessage(tool string, result tools.Result) string {
	switch tool {
	case tools.SearchDocuments:
		return fmt.Sprintf("Found %d documents", result.TotalFound)
	case tools.SearchWeb:
		return fmt.Sprintf("Found %d web results", result.TotalFound)
	}
	return fmt.Sprintf("Tool %s completed", tool)
}

func encodeResult(result tools.Result) string {
	raw, err := json.Marshal(result)
	if err != nil {
		raw, _ = json.Marshal(tools.Failure(result.Query, "failed to encode tool result: "+err.Error()))
	}
	return string(raw)
}
