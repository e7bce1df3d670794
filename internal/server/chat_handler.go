package server

import (
	"github.com/gin-gonic/gin"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

// handleAsk 提问
func (s *HTTPGinServer) handleAsk(c *gin.Context) {
	var req model.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, agent.NewValidationError("invalid request body: %v", err))
		return
	}

	result, err := s.pipeline.Answer(c.Request.Context(), agent.Request{
		UserID:   req.UserID,
		TopicID:  req.TopicID,
		Question: req.Question,
		Model:    req.Model,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.success(c, model.AskData{
		Answer:  result.Answer,
		TypeRes: result.TypeRes,
	})
}

// handleConversation 查询对话历史
func (s *HTTPGinServer) handleConversation(c *gin.Context) {
	var req model.ConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, agent.NewValidationError("invalid request body: %v", err))
		return
	}

	turns, err := s.pipeline.History(c.Request.Context(), req.UserID, req.TopicID)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.success(c, gin.H{
		"conversation_history": turns,
	})
}
