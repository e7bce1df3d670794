package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

// DefaultListLimit 默认返回条数
const DefaultListLimit = 20

// AnswerLogService 已返回答案的审计日志服务
type AnswerLogService struct {
	db *gorm.DB
}

// NewAnswerLogService 创建审计日志服务实例
func NewAnswerLogService(db *gorm.DB) *AnswerLogService {
	return &AnswerLogService{db: db}
}

// Record 写入一条记录
func (s *AnswerLogService) Record(ctx context.Context, entry *model.ChatLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// List 按条件查询，最新的在前
func (s *AnswerLogService) List(ctx context.Context, q model.ChatLogQuery) ([]model.ChatLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.ChatLog{})

	if q.UserID != "" {
		query = query.Where("user_id = ?", q.UserID)
	}
	if q.TopicID != "" {
		query = query.Where("topic_id = ?", q.TopicID)
	}
	if q.TypeRes != "" {
		query = query.Where("type_res = ?", q.TypeRes)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var logs []model.ChatLog
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, total, err
}

// Clear 删除全部记录，返回删除条数
func (s *AnswerLogService) Clear(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.ChatLog{})
	return res.RowsAffected, res.Error
}
