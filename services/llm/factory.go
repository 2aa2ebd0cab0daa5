package llm

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// FromEnv builds the reasoning client selected by LLM_BACKEND_TYPE.
// Supported values are "anthropic" (the default) and "openai".
func FromEnv() (Client, error) {
	backend := strings.ToLower(os.Getenv("LLM_BACKEND_TYPE"))
	if backend == "" {
		backend = "anthropic"
		slog.Info("LLM_BACKEND_TYPE not set, defaulting to anthropic")
	}

	switch backend {
	case "anthropic":
		return NewAnthropicClient()
	case "openai":
		return NewOpenAIClient()
	default:
		return nil, fmt.Errorf("unsupported LLM_BACKEND_TYPE %q", backend)
	}
}
