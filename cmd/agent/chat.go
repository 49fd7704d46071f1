package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/console"
	"github.com/lexiqai/rag-agent/internal/orchestrator"
)

// ChatCmd runs the fixed retrieve-then-answer pipeline
type ChatCmd struct {
	Question string `short:"q" long:"question" description:"answer one question and exit"`
}

// AgentCmd runs the tool-calling agent
type AgentCmd struct {
	Question string `short:"q" long:"question" description:"answer one question and exit"`
}

type turnRunner interface {
	Run(ctx context.Context, question string) (*orchestrator.Turn, error)
}

func (c *ChatCmd) Execute(_ []string) error {
	a, err := newApp(config.ModeChat)
	if err != nil {
		return err
	}

	sink := console.NewSink(os.Stdout)
	bot := orchestrator.NewRAGChat(a.llmClient(), a.retriever, sink, a.options())
	return converse(a, sink, bot, "RAG Chat", c.Question)
}

func (c *AgentCmd) Execute(_ []string) error {
	a, err := newApp(config.ModeAgent)
	if err != nil {
		return err
	}

	sink := console.NewSink(os.Stdout)
	agent := orchestrator.NewAgent(a.llmClient(), a.registry, sink, a.options())
	return converse(a, sink, agent, "RAG Agent (function calling)", c.Question)
}

// converse answers question once when given, otherwise runs the interactive loop
func converse(a *app, sink *console.Sink, runner turnRunner, title, question string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if question != "" {
		_, err := runner.Run(ctx, question)
		return err
	}

	a.announce(sink, title)
	sink.EchoQuestions = false
	return console.NewLoop(os.Stdin, os.Stdout, sink).Run(ctx, func(ctx context.Context, q string) error {
		_, err := runner.Run(ctx, q)
		return err
	})
}
