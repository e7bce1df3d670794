package server

import (
	"context"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/gin-gonic/gin"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
	"github.com/tanakon8529/micro-ai-chatbot/internal/knowledge"
)

// KnowledgeBase 向量索引的运维接口
type KnowledgeBase interface {
	Len() int
	Info() string
	Retrieve(ctx context.Context, query string, k int) ([]*knowledge.Document, error)
	Rebuild(ctx context.Context) error
}

// SearchRequest 检索请求
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// handleKnowledgeStats 索引概况
func (s *HTTPGinServer) handleKnowledgeStats(c *gin.Context) {
	s.success(c, gin.H{
		"documents": s.knowledge.Len(),
		"info":      s.knowledge.Info(),
	})
}

// handleKnowledgeSearch 直接检索索引，不经过模型
func (s *HTTPGinServer) handleKnowledgeSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, agent.NewValidationError("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.fail(c, agent.NewValidationError("query is required"))
		return
	}
	if req.TopK <= 0 {
		req.TopK = knowledge.DefaultTopK
	}

	docs, err := s.knowledge.Retrieve(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		s.fail(c, &agent.Error{Kind: agent.KindBackend, Code: agent.CodeResponse, Message: "retrieval failed", Err: err})
		return
	}

	s.success(c, gin.H{
		"total":     len(docs),
		"documents": docs,
	})
}

// handleKnowledgeRebuild 重新构建索引
func (s *HTTPGinServer) handleKnowledgeRebuild(c *gin.Context) {
	if err := s.knowledge.Rebuild(c.Request.Context()); err != nil {
		logx.Error("❌ Knowledge rebuild failed: %v", err)
		s.fail(c, &agent.Error{Kind: agent.KindBackend, Code: agent.CodeResponse, Message: "rebuild failed", Err: err})
		return
	}

	s.success(c, gin.H{
		"documents": s.knowledge.Len(),
	})
}
