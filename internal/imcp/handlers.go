package imcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
	"github.com/tanakon8529/micro-ai-chatbot/internal/memory"
)

// handleAsk 处理提问
func (s *MCPServer) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	topicID, err := request.RequireString("topic_id")
	if err != nil {
		return mcp.NewToolResultError("topic_id parameter is required"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question parameter is required"), nil
	}
	model := request.GetString("model", defaultModel(s.pipeline.Models()))

	result, err := s.pipeline.Answer(ctx, agent.Request{
		UserID:   userID,
		TopicID:  topicID,
		Question: question,
		Model:    model,
	})
	if err != nil {
		logx.Warn("MCP ask failed for user %s: %v", userID, err)
		return mcp.NewToolResultError(formatError(err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("[%s]\n%s", result.TypeRes, result.Answer)), nil
}

// handleHistory 处理历史查询
func (s *MCPServer) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	topicID, err := request.RequireString("topic_id")
	if err != nil {
		return mcp.NewToolResultError("topic_id parameter is required"), nil
	}

	turns, err := s.pipeline.History(ctx, userID, topicID)
	if err != nil {
		return mcp.NewToolResultError(formatError(err)), nil
	}
	return mcp.NewToolResultText(formatHistory(turns)), nil
}

// formatError 只暴露错误分类和对外描述
func formatError(err error) string {
	var e *agent.Error
	if !errors.As(err, &e) {
		return "internal: internal server error"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Detail())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail())
}

// formatHistory 格式化对话历史
func formatHistory(turns []memory.Turn) string {
	if len(turns) == 0 {
		return "No conversation history."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d messages:\n\n", len(turns))
	for _, turn := range turns {
		label := "User"
		if turn.Sender == memory.SenderBot {
			label = "Bot"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", turn.Timestamp.Format("2006-01-02 15:04:05"), label, turn.Message)
	}
	return b.String()
}
