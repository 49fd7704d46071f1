package config

import (
	"fmt"
	"strings"
)

// Mode identifies the command being started; each mode needs different credentials
type Mode string

const (
	ModeChat   Mode = "chat"
	ModeAgent  Mode = "agent"
	ModeServe  Mode = "serve"
	ModeUpload Mode = "upload"
	ModeTools  Mode = "tools"
)

// ConfigurationError reports credentials missing for a mode
type ConfigurationError struct {
	Mode    Mode
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration for %s mode: %s", e.Mode, strings.Join(e.Missing, ", "))
}

// Remediation returns instructions telling the user how to supply the missing values
func (e *ConfigurationError) Remediation() string {
	var b strings.Builder
	b.WriteString("Set the following environment variables (or add them to a .env file):\n")
	for _, name := range e.Missing {
		fmt.Fprintf(&b, "  %s=<your-value>\n", name)
	}
	return b.String()
}

// Validate checks that every credential required by mode is present
func (c *Config) Validate(mode Mode) error {
	var missing []string

	needLLM := func() {
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	}
	needVectorize := func(pipeline bool) {
		if c.VectorizeOrganizationID == "" {
			missing = append(missing, "VECTORIZE_ORGANIZATION_ID")
		}
		if c.VectorizePipelineAccessToken == "" {
			missing = append(missing, "VECTORIZE_PIPELINE_ACCESS_TOKEN")
		}
		if pipeline && c.VectorizePipelineID == "" {
			missing = append(missing, "VECTORIZE_PIPELINE_ID")
		}
	}

	switch mode {
	case ModeChat:
		needLLM()
		if c.RAGSource == RAGSourceVectorize {
			needVectorize(true)
		}
	case ModeAgent, ModeServe:
		needLLM()
	case ModeUpload:
		needVectorize(false)
	case ModeTools:
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return &ConfigurationError{Mode: mode, Missing: missing}
	}
	return nil
}
