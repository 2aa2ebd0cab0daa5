package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	anthropicAPIVersion = "2023-06-01"
	defaultBaseURL      = "https://api.anthropic.com/v1/messages"
)

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    []systemBlock      `json:"system,omitempty"` // Top-level system prompt
	MaxTokens int                `json:"max_tokens"`
	Tools     []toolsDefinition  `json:"tools,omitempty"`

	Temperature *float32 `json:"temperature,omitempty"`
	StopSeqs    []string `json:"stop_sequences,omitempty"`
}

// anthropicMessage content is a string for plain turns and a block list
// when carrying tool calls or results.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type systemBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"` // Must be "ephemeral"
}

type toolsDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"` // JSON Schema
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use fields
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type toolResultBlock struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
	Error      *anthropicError    `json:"error,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// --- Client Implementation ---

type AnthropicClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewAnthropicClient() (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	model := os.Getenv("CLAUDE_MODEL")

	// 1. Robust Secret Loading
	if apiKey == "" {
		secretPath := "/run/secrets/anthropic_api_key"
		if content, err := os.ReadFile(secretPath); err == nil {
			apiKey = strings.TrimSpace(string(content))
			slog.Info("Read Anthropic API Key from Podman Secrets")
		}
	}

	// 2. Graceful Failure
	if apiKey == "" {
		slog.Warn("Anthropic API Key is missing.")
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is missing")
	}

	if model == "" {
		model = "claude-3-5-sonnet-20240620"
		slog.Info("CLAUDE_MODEL not set, defaulting to", "model", model)
	}

	return &AnthropicClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
	}, nil
}

func (a *AnthropicClient) Backend() string { return "anthropic" }

// Invoke implements the Client interface. Tool calls are resolved locally
// and the conversation continues until the model stops asking for tools or
// the round cap is hit, whichever comes first.
func (a *AnthropicClient) Invoke(ctx context.Context, req InvokeRequest) (string, error) {
	var systemBlocks []systemBlock
	if req.System != "" {
		block := systemBlock{Type: "text", Text: req.System}
		if len(req.System) > 1024 {
			block.CacheControl = &cacheControl{Type: "ephemeral"}
		}
		systemBlocks = append(systemBlocks, block)
	}

	var tools []toolsDefinition
	for _, t := range req.Tools {
		tools = append(tools, toolsDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema,
		})
	}

	messages := []anthropicMessage{{Role: "user", Content: req.User}}

	for round := 0; round <= maxToolRounds; round++ {
		resp, err := a.send(ctx, anthropicRequest{
			Model:     a.model,
			Messages:  messages,
			System:    systemBlocks,
			MaxTokens: 4096,
			Tools:     tools,
		})
		if err != nil {
			return "", err
		}

		if resp.StopReason != "tool_use" {
			return collectText(resp.Content)
		}
		if round == maxToolRounds {
			return "", fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
		}

		// Echo the assistant turn, then answer every tool_use block.
		messages = append(messages, anthropicMessage{Role: "assistant", Content: resp.Content})
		var results []toolResultBlock
		for _, block := range resp.Content {
			if block.Type != "tool_use" {
				continue
			}
			slog.Debug("Resolving tool call", "tool", block.Name, "round", round)
			results = append(results, toolResultBlock{
				Type:      "tool_result",
				ToolUseID: block.ID,
				Content:   runTool(ctx, req.Tools, block.Name, block.Input),
			})
		}
		if len(results) == 0 {
			return "", fmt.Errorf("stop_reason tool_use with no tool_use blocks")
		}
		messages = append(messages, anthropicMessage{Role: "user", Content: results})
	}

	// Unreachable, the loop always returns.
	return "", fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
}

func (a *AnthropicClient) send(ctx context.Context, payload anthropicRequest) (*anthropicResponse, error) {
	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("content-type", "application/json")

	slog.Debug("Sending REST request to Anthropic", "model", a.model)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("anthropic API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("received empty content from Anthropic")
	}

	return &apiResp, nil
}

func collectText(blocks []anthropicContent) (string, error) {
	finalText := ""
	for _, block := range blocks {
		if block.Type == "text" {
			finalText += block.Text
		}
	}
	if finalText == "" {
		return "", fmt.Errorf("received content but no text block found")
	}
	return finalText, nil
}
