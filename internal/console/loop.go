package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/report"
)

var quitWords = map[string]bool{"quit": true, "exit": true, "q": true}

// TurnFunc answers one question. Its error is reported but never ends the loop.
type TurnFunc func(ctx context.Context, question string) error

// Loop reads questions from in until EOF, a quit word or ctx cancellation
type Loop struct {
	in     *bufio.Scanner
	out    io.Writer
	sink   report.Sink
	prompt *color.Color
	logger zerolog.Logger
}

// NewLoop creates an interactive loop; warnings go to sink
func NewLoop(in io.Reader, out io.Writer, sink report.Sink) *Loop {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Loop{
		in:     scanner,
		out:    out,
		sink:   sink,
		prompt: color.New(color.FgCyan, color.Bold),
		logger: observability.ComponentLogger("console"),
	}
}

// Run asks for questions and hands each to turn.
// Cancelling ctx ends the session even while waiting for input.
func (l *Loop) Run(ctx context.Context, turn TurnFunc) error {
	stop := make(chan struct{})
	defer close(stop)

	// Scan blocks until a newline arrives, so lines are read on their own goroutine.
	// It exits at EOF, or with the next line once Run has returned.
	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		for l.in.Scan() {
			select {
			case lines <- l.in.Text():
			case <-stop:
				return
			}
		}
		scanErr = l.in.Err()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		l.prompt.Fprint(l.out, "\nYou: ")

		var text string
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.out)
			l.sink.Report(report.Info, "Goodbye!")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(l.out)
				return scanErr
			}
			text = line
		}

		question := strings.TrimSpace(text)
		if quitWords[strings.ToLower(question)] {
			l.sink.Report(report.Info, "Goodbye!")
			return nil
		}
		if question == "" {
			l.sink.Report(report.Warning, "Please enter a question.")
			continue
		}

		// a failed turn is already reported by the orchestrator; keep accepting questions
		if err := turn(ctx, question); err != nil {
			l.logger.Debug().Err(err).Msg("Turn ended with an error")
		}
	}
}
