package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"

	"github.com/lexiqai/rag-agent/internal/config"
)

// Options is the root command. The struct tags are interpreted by github.com/jessevdk/go-flags.
type Options struct {
	LogLevel string `long:"log-level" description:"override LOG_LEVEL (debug, info, warn, error)"`
	Pretty   bool   `long:"pretty" description:"human-readable logs instead of JSON"`

	Chat   ChatCmd   `command:"chat" description:"Chat with the knowledge base (retrieve, then answer)"`
	Agent  AgentCmd  `command:"agent" description:"Let the model choose between document and web search tools"`
	Upload UploadCmd `command:"upload" description:"Upload documents to the Vectorize pipeline"`
	Serve  ServeCmd  `command:"serve" description:"Start the web API"`
	Tools  ToolsCmd  `command:"tools" description:"Exercise each tool with sample queries, without the LLM"`
}

var opts Options

func newParser() *flags.Parser {
	return flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	parser := newParser()
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			return 0
		}

		red := color.New(color.FgRed, color.Bold)
		red.Fprintf(os.Stderr, "Error: %v\n", err)

		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprint(os.Stderr, cfgErr.Remediation())
		}
		return 1
	}
	return 0
}
