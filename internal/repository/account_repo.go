package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"instafeed_dev_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// DeletionPreview 删除前的只读统计，供前端确认弹窗展示
type DeletionPreview struct {
	PostsCount         int64 `json:"postsCount"`
	SelectedPostsCount int64 `json:"selectedPostsCount"`
	ProductLinksCount  int64 `json:"productLinksCount"`
}

// AccountRepository Instagram 账号仓储接口
type AccountRepository interface {
	// Upsert 以 instagram_id 为冲突键的幂等建号/更新，唯一的建号入口
	Upsert(ctx context.Context, account *model.InstagramAccount) error

	GetByID(ctx context.Context, id int64) (*model.InstagramAccount, error)
	GetByInstagramID(ctx context.Context, instagramID string) (*model.InstagramAccount, error)
	// GetByUsername 按用户名查询，带出帖子列表
	GetByUsername(ctx context.Context, username string) (*model.InstagramAccount, error)
	// List 全量账号，带出帖子列表
	List(ctx context.Context) ([]model.InstagramAccount, error)
	// ListExpiring 查询 token 即将过期的账号 (定时续期任务用)
	ListExpiring(ctx context.Context, withinDays int) ([]model.InstagramAccount, error)

	// UpdateToken 续期成功后回写 token
	UpdateToken(ctx context.Context, id int64, token string, expiresAt time.Time) error

	// DeletionPreview 删除前统计
	DeletionPreview(ctx context.Context, accountID int64) (*DeletionPreview, error)
	// DeleteCascade 单事务内按 商品关联 -> 帖子 -> 账号 的顺序级联删除
	// 账号不存在返回 ErrAccountNotFound
	DeleteCascade(ctx context.Context, accountID int64) error

	// 事务
	WithTx(tx *gorm.DB) AccountRepository
	Transaction(ctx context.Context, fn func(txRepo AccountRepository) error) error
}

// ==================== 仓储实现 ====================

type accountRepo struct {
	db *gorm.DB
}

// NewAccountRepository 创建账号仓储
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Upsert(ctx context.Context, account *model.InstagramAccount) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "instagram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"instagram_username", "instagram_token",
			"instagram_token_expires", "account_type", "updated_at",
		}),
	}).Create(account).Error
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*model.InstagramAccount, error) {
	var account model.InstagramAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) GetByInstagramID(ctx context.Context, instagramID string) (*model.InstagramAccount, error) {
	var account model.InstagramAccount
	err := r.db.WithContext(ctx).
		Where("instagram_id = ?", instagramID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) GetByUsername(ctx context.Context, username string) (*model.InstagramAccount, error) {
	var account model.InstagramAccount
	err := r.db.WithContext(ctx).
		Preload("Posts").
		Where("instagram_username = ?", username).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) List(ctx context.Context) ([]model.InstagramAccount, error) {
	var accounts []model.InstagramAccount
	err := r.db.WithContext(ctx).
		Preload("Posts").
		Order("id").
		Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) ListExpiring(ctx context.Context, withinDays int) ([]model.InstagramAccount, error) {
	var accounts []model.InstagramAccount
	deadline := time.Now().AddDate(0, 0, withinDays)
	err := r.db.WithContext(ctx).
		Where("instagram_token <> ''").
		Where("instagram_token_expires <= ?", deadline).
		Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) UpdateToken(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.InstagramAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"instagram_token":         token,
			"instagram_token_expires": expiresAt,
		}).Error
}

func (r *accountRepo) DeletionPreview(ctx context.Context, accountID int64) (*DeletionPreview, error) {
	// 先确认账号存在，避免对不存在的账号返回全 0 统计
	if _, err := r.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	preview := &DeletionPreview{}

	if err := db.Model(&model.InstagramPost{}).
		Where("account_id = ?", accountID).
		Count(&preview.PostsCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.InstagramPost{}).
		Where("account_id = ? AND selected = ?", accountID, true).
		Count(&preview.SelectedPostsCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.InstagramPostProduct{}).
		Where("post_id IN (?)", db.Model(&model.InstagramPost{}).
			Select("id").Where("account_id = ?", accountID)).
		Count(&preview.ProductLinksCount).Error; err != nil {
		return nil, err
	}

	return preview, nil
}

func (r *accountRepo) DeleteCascade(ctx context.Context, accountID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account model.InstagramAccount
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		// 子表在前，父表在后；任何一步失败整体回滚
		if err := tx.Where("post_id IN (?)", tx.Model(&model.InstagramPost{}).
			Select("id").Where("account_id = ?", accountID)).
			Delete(&model.InstagramPostProduct{}).Error; err != nil {
			return err
		}

		if err := tx.Where("account_id = ?", accountID).
			Delete(&model.InstagramPost{}).Error; err != nil {
			return err
		}

		return tx.Delete(&account).Error
	})
}

func (r *accountRepo) WithTx(tx *gorm.DB) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) Transaction(ctx context.Context, fn func(txRepo AccountRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
