package server

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

// maxLogPageSize 单次查询上限
const maxLogPageSize = 100

// AnswerLogs 答案审计日志查询
type AnswerLogs interface {
	List(ctx context.Context, q model.ChatLogQuery) ([]model.ChatLog, int64, error)
}

// handleListLogs 查询答案审计日志
func (s *HTTPGinServer) handleListLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > maxLogPageSize {
		limit = 20
	}

	logs, total, err := s.logs.List(c.Request.Context(), model.ChatLogQuery{
		UserID:  c.Query("user_id"),
		TopicID: c.Query("topic_id"),
		TypeRes: c.Query("type_res"),
		Limit:   limit,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.success(c, gin.H{
		"total": total,
		"items": logs,
	})
}
