package imcp

import (
	"context"
	"io"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
	"github.com/tanakon8529/micro-ai-chatbot/internal/memory"
)

// Answerer 应答流程
type Answerer interface {
	Answer(ctx context.Context, req agent.Request) (*agent.Result, error)
	History(ctx context.Context, userID, topicID string) ([]memory.Turn, error)
	Models() []string
}

// MCPServer 以 MCP 工具的形式暴露问答能力
type MCPServer struct {
	server   *server.MCPServer
	pipeline Answerer
}

// NewMCPServer 创建 MCP Server 并注册工具
func NewMCPServer(pipeline Answerer, version string) *MCPServer {
	s := &MCPServer{
		server: server.NewMCPServer(
			"micro-ai-chatbot",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		pipeline: pipeline,
	}
	s.registerTools()
	return s
}

// registerTools 注册工具
func (s *MCPServer) registerTools() {
	s.server.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Ask the knowledge base assistant a question within a user/topic conversation. Answers come from the semantic cache or are generated from retrieved documents."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation owner")),
		mcp.WithString("topic_id", mcp.Required(), mcp.Description("Conversation topic")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithString("model", mcp.Description("Model backend"), mcp.Enum(s.pipeline.Models()...), mcp.DefaultString(defaultModel(s.pipeline.Models()))),
	), s.handleAsk)

	s.server.AddTool(mcp.NewTool("history",
		mcp.WithDescription("Return the stored conversation history of a user/topic, oldest first."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation owner")),
		mcp.WithString("topic_id", mcp.Required(), mcp.Description("Conversation topic")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleHistory)
}

// Server 返回底层的 mcp-go Server
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// Serve 在给定的输入输出上运行 stdio 协议，直到 ctx 结束或输入关闭
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	logx.Info("🔌 MCP server listening on stdio, tools %v", []string{"ask", "history"})
	return server.NewStdioServer(s.server).Listen(ctx, in, out)
}

func defaultModel(models []string) string {
	for _, m := range models {
		if m == "GPT" {
			return m
		}
	}
	if len(models) > 0 {
		return models[0]
	}
	return ""
}
