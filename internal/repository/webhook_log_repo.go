package repository

import (
	"context"

	"gorm.io/gorm"

	"instafeed_dev_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// WebhookLogRepository 合规 webhook 审计日志仓储
type WebhookLogRepository interface {
	Create(ctx context.Context, entry *model.WebhookLog) error
	// ListRecent 最近 N 条，合规复查用
	ListRecent(ctx context.Context, limit int) ([]model.WebhookLog, error)
}

// ==================== 仓储实现 ====================

type webhookLogRepo struct {
	db *gorm.DB
}

// NewWebhookLogRepository 创建审计日志仓储
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepo{db: db}
}

func (r *webhookLogRepo) Create(ctx context.Context, entry *model.WebhookLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *webhookLogRepo) ListRecent(ctx context.Context, limit int) ([]model.WebhookLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.WebhookLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
