// Package console renders reported events in a terminal and drives the interactive prompt.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/lexiqai/rag-agent/internal/report"
)

type style struct {
	prefix string
	color  *color.Color
}

var styles = map[report.Kind]style{
	report.Info:     {"ℹ ", color.New(color.FgBlue)},
	report.Success:  {"✓ ", color.New(color.FgGreen)},
	report.Error:    {"✗ ", color.New(color.FgRed, color.Bold)},
	report.Warning:  {"⚠ ", color.New(color.FgYellow)},
	report.Question: {"You: ", color.New(color.FgCyan, color.Bold)},
	report.Answer:   {"Assistant: ", color.New(color.FgMagenta)},
	report.Loading:  {"… ", color.New(color.Faint)},
}

// Sink writes one colored line per event
type Sink struct {
	mu  sync.Mutex
	out io.Writer
	// EchoQuestions re-prints questions; off for interactive use where the user just typed them
	EchoQuestions bool
}

// NewSink creates a console sink writing to out
func NewSink(out io.Writer) *Sink {
	return &Sink{out: out, EchoQuestions: true}
}

// Report renders the event
func (s *Sink) Report(kind report.Kind, text string) {
	if kind == report.Question && !s.EchoQuestions {
		return
	}

	st, ok := styles[kind]
	if !ok {
		st = styles[report.Info]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == report.Answer {
		st.color.Fprintln(s.out, st.prefix)
		fmt.Fprintln(s.out, strings.TrimSpace(text))
		fmt.Fprintln(s.out)
		return
	}
	st.color.Fprintln(s.out, st.prefix+text)
}

// Banner prints a titled header
func (s *Sink) Banner(title, subtitle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := strings.Repeat("─", max(len(title), len(subtitle))+4)
	bold := color.New(color.FgCyan, color.Bold)
	bold.Fprintln(s.out, line)
	bold.Fprintln(s.out, "  "+title)
	if subtitle != "" {
		fmt.Fprintln(s.out, "  "+subtitle)
	}
	bold.Fprintln(s.out, line)
}
