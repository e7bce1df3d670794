package imcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
	"github.com/tanakon8529/micro-ai-chatbot/internal/memory"
)

type fakePipeline struct {
	result *agent.Result
	turns  []memory.Turn
	err    error
	last   agent.Request
}

func (p *fakePipeline) Answer(_ context.Context, req agent.Request) (*agent.Result, error) {
	p.last = req
	return p.result, p.err
}

func (p *fakePipeline) History(context.Context, string, string) ([]memory.Turn, error) {
	return p.turns, p.err
}

func (p *fakePipeline) Models() []string { return []string{"CLAUDE", "GPT"} }

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return text.Text
}

func TestNewMCPServer_RegistersTools(t *testing.T) {
	s := NewMCPServer(&fakePipeline{}, "test")
	for _, name := range []string{"ask", "history"} {
		if s.Server().GetTool(name) == nil {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestHandleAsk(t *testing.T) {
	p := &fakePipeline{result: &agent.Result{Answer: "Paris.", TypeRes: agent.TypeCache}}
	s := NewMCPServer(p, "test")

	res, err := s.handleAsk(context.Background(), callRequest("ask", map[string]any{
		"user_id": "u1", "topic_id": "t1", "question": "capital of France?",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "[cache]\nParis." {
		t.Errorf("text = %q", got)
	}
	if p.last.Model != "GPT" || p.last.UserID != "u1" {
		t.Errorf("request = %+v", p.last)
	}

	res, _ = s.handleAsk(context.Background(), callRequest("ask", map[string]any{"user_id": "u1"}))
	if !res.IsError {
		t.Error("missing arguments should produce an error result")
	}

	p.err = &agent.Error{Kind: agent.KindBackend, Code: agent.CodeModel, Message: "model call failed", Err: errors.New("quota")}
	res, _ = s.handleAsk(context.Background(), callRequest("ask", map[string]any{
		"user_id": "u1", "topic_id": "t1", "question": "q", "model": "CLAUDE",
	}))
	if got := resultText(t, res); !res.IsError || got != "backend (04): model call failed: quota" {
		t.Errorf("error text = %q", got)
	}
}

func TestHandleHistory(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	p := &fakePipeline{turns: []memory.Turn{
		{Sender: memory.SenderUser, Message: "hi", Timestamp: ts},
		{Sender: memory.SenderBot, Message: "hello", Timestamp: ts.Add(time.Second)},
	}}
	s := NewMCPServer(p, "test")

	res, err := s.handleHistory(context.Background(), callRequest("history", map[string]any{"user_id": "u1", "topic_id": "t1"}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	for _, want := range []string{"2 messages", "[2024-05-01 08:30:00] User: hi", "[2024-05-01 08:30:01] Bot: hello"} {
		if !strings.Contains(text, want) {
			t.Errorf("history text missing %q:\n%s", want, text)
		}
	}

	p.turns = nil
	res, _ = s.handleHistory(context.Background(), callRequest("history", map[string]any{"user_id": "u1", "topic_id": "t1"}))
	if got := resultText(t, res); got != "No conversation history." {
		t.Errorf("empty history text = %q", got)
	}
}

func TestFormatError_HidesInternalDetail(t *testing.T) {
	if got := formatError(errors.New("db password leaked")); strings.Contains(got, "password") {
		t.Errorf("internal detail leaked: %q", got)
	}
}
