package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestAnthropic(url string) *AnthropicClient {
	return &AnthropicClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    url,
		apiKey:     "test-key",
		model:      "claude-test",
	}
}

func textResponse(text string) anthropicResponse {
	return anthropicResponse{
		Type:       "message",
		Role:       "assistant",
		Content:    []anthropicContent{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}
}

func TestAnthropicInvokePlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicAPIVersion {
			t.Errorf("anthropic-version = %q", got)
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.System) != 1 || req.System[0].Text != "be terse" {
			t.Errorf("system = %+v", req.System)
		}
		json.NewEncoder(w).Encode(textResponse("all quiet"))
	}))
	defer server.Close()

	client := newTestAnthropic(server.URL)
	out, err := client.Invoke(context.Background(), InvokeRequest{System: "be terse", User: "report"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "all quiet" {
		t.Errorf("out = %q", out)
	}
}

func TestAnthropicInvokeResolvesToolCalls(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if calls == 1 {
			if len(req.Tools) != 1 || req.Tools[0].Name != "lookup" {
				t.Errorf("tools = %+v", req.Tools)
			}
			json.NewEncoder(w).Encode(anthropicResponse{
				Type: "message",
				Role: "assistant",
				Content: []anthropicContent{
					{Type: "tool_use", ID: "tu_1", Name: "lookup", Input: json.RawMessage(`{"region":"middle_east"}`)},
				},
				StopReason: "tool_use",
			})
			return
		}
		// Second round must carry the assistant echo and the tool result.
		if len(req.Messages) != 3 {
			t.Errorf("round 2 messages = %d, want 3", len(req.Messages))
		}
		raw, _ := json.Marshal(req.Messages[2].Content)
		if !strings.Contains(string(raw), "tu_1") || !strings.Contains(string(raw), "12 anomalies") {
			t.Errorf("tool result turn = %s", raw)
		}
		json.NewEncoder(w).Encode(textResponse("done"))
	}))
	defer server.Close()

	var gotArgs string
	client := newTestAnthropic(server.URL)
	out, err := client.Invoke(context.Background(), InvokeRequest{
		User: "assess",
		Tools: []Tool{{
			Name:   "lookup",
			Schema: map[string]any{"type": "object"},
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				gotArgs = string(args)
				return "12 anomalies", nil
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
	if !strings.Contains(gotArgs, "middle_east") {
		t.Errorf("tool args = %q", gotArgs)
	}
}

func TestAnthropicInvokeToolRoundCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{
			Type: "message",
			Role: "assistant",
			Content: []anthropicContent{
				{Type: "tool_use", ID: "tu_x", Name: "lookup", Input: json.RawMessage(`{}`)},
			},
			StopReason: "tool_use",
		})
	}))
	defer server.Close()

	client := newTestAnthropic(server.URL)
	_, err := client.Invoke(context.Background(), InvokeRequest{
		User: "assess",
		Tools: []Tool{{
			Name: "lookup",
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				return "nothing", nil
			},
		}},
	})
	if err == nil || !strings.Contains(err.Error(), "tool loop exceeded") {
		t.Fatalf("err = %v, want round cap error", err)
	}
}

func TestAnthropicInvokeUnknownToolReportedToModel(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(anthropicResponse{
				Type: "message",
				Role: "assistant",
				Content: []anthropicContent{
					{Type: "tool_use", ID: "tu_1", Name: "no_such_tool", Input: json.RawMessage(`{}`)},
				},
				StopReason: "tool_use",
			})
			return
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		raw, _ := json.Marshal(req.Messages[2].Content)
		if !strings.Contains(string(raw), "unknown tool") {
			t.Errorf("tool result = %s", raw)
		}
		json.NewEncoder(w).Encode(textResponse("recovered"))
	}))
	defer server.Close()

	client := newTestAnthropic(server.URL)
	out, err := client.Invoke(context.Background(), InvokeRequest{User: "assess"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "recovered" {
		t.Errorf("out = %q", out)
	}
}

func TestAnthropicInvokeAPIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error","message":"busy"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestAnthropic(server.URL)
	_, err := client.Invoke(context.Background(), InvokeRequest{User: "assess"})
	if err == nil || !strings.Contains(err.Error(), "status 503") {
		t.Fatalf("err = %v, want status error", err)
	}
}
