package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func newTestOpenAI(url string) *OpenAIClient {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = url + "/v1"
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: "gpt-test"}
}

func TestOpenAIInvokePlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: "steady state"},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	defer server.Close()

	client := newTestOpenAI(server.URL)
	out, err := client.Invoke(context.Background(), InvokeRequest{System: "be terse", User: "report"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "steady state" {
		t.Errorf("out = %q", out)
	}
}

func TestOpenAIInvokeResolvesToolCalls(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
				Choices: []openai.ChatCompletionChoice{{
					Message: openai.ChatCompletionMessage{
						Role: "assistant",
						ToolCalls: []openai.ToolCall{{
							ID:   "call_1",
							Type: openai.ToolTypeFunction,
							Function: openai.FunctionCall{
								Name:      "lookup",
								Arguments: `{"region":"east_asia"}`,
							},
						}},
					},
					FinishReason: openai.FinishReasonToolCalls,
				}},
			})
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		last := req.Messages[len(req.Messages)-1]
		if last.Role != openai.ChatMessageRoleTool || last.ToolCallID != "call_1" {
			t.Errorf("last message = %+v", last)
		}
		if !strings.Contains(last.Content, "3 vessels") {
			t.Errorf("tool observation = %q", last.Content)
		}
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: "done"},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	defer server.Close()

	client := newTestOpenAI(server.URL)
	out, err := client.Invoke(context.Background(), InvokeRequest{
		User: "assess",
		Tools: []Tool{{
			Name:   "lookup",
			Schema: map[string]any{"type": "object"},
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				if !strings.Contains(string(args), "east_asia") {
					t.Errorf("args = %s", args)
				}
				return "3 vessels", nil
			},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "done" {
		t.Errorf("out = %q", out)
	}
	if calls != 2 {
		t.Errorf("server saw %d calls, want 2", calls)
	}
}

func TestOpenAIInvokeNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{})
	}))
	defer server.Close()

	client := newTestOpenAI(server.URL)
	_, err := client.Invoke(context.Background(), InvokeRequest{User: "assess"})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("err = %v", err)
	}
}
