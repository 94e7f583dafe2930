package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"instafeed_dev_v1_202608/internal/model"
)

// ErrSessionNotFound 店铺未安装或离线 token 缺失
var ErrSessionNotFound = errors.New("shop session not found")

// ==================== 接口定义 ====================

// SessionRepository 店铺安装会话仓储
type SessionRepository interface {
	// Upsert 以 shop 域名为冲突键，重装覆盖 token
	Upsert(ctx context.Context, session *model.Session) error
	GetByShop(ctx context.Context, shop string) (*model.Session, error)
	// DeleteByShop 卸载/店铺删除时清理
	DeleteByShop(ctx context.Context, shop string) error
}

// ==================== 仓储实现 ====================

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓储
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Upsert(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shop"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "scope", "installed_at", "updated_at",
		}),
	}).Create(session).Error
}

func (r *sessionRepo) GetByShop(ctx context.Context, shop string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) DeleteByShop(ctx context.Context, shop string) error {
	return r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Delete(&model.Session{}).Error
}
