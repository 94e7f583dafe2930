package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"instafeed_dev_v1_202608/internal/model"
)

// ==================== 过滤条件 ====================

// PostFilter 帖子过滤条件
type PostFilter struct {
	Username  string // 必填
	Search    string // caption 子串匹配 (区分大小写的 contains)，空表示不过滤
	MediaType string // IMAGE / VIDEO，空或 "all" 表示不过滤
}

// ==================== 接口定义 ====================

// PostRepository 帖子仓储接口
type PostRepository interface {
	GetByID(ctx context.Context, postID string) (*model.InstagramPost, error)
	ListByAccount(ctx context.Context, accountID int64) ([]model.InstagramPost, error)
	// ListSelectedWithProducts 店面 feed 查询：selected=true，带商品快照，按发布时间倒序
	ListSelectedWithProducts(ctx context.Context) ([]model.InstagramPost, error)
	// Filter 按用户名 + 可选的 caption 子串 / 媒体类型过滤
	Filter(ctx context.Context, filter PostFilter) ([]model.InstagramPost, error)

	// InsertMissing 增量同步：只插入库里不存在的帖子，已有行（含 selected）原样保留
	// 返回实际插入条数
	InsertMissing(ctx context.Context, posts []model.InstagramPost) (int, error)

	// ReplaceForAccount 全量刷新：单事务内删商品关联 -> 删帖子 -> 插入新帖
	// 必须在整个拉取循环成功之后才调用；事务保证不会留下"删完没插进去"的中间态
	ReplaceForAccount(ctx context.Context, accountID int64, posts []model.InstagramPost) error

	// UpdateSelected 勾选/取消勾选。可更新字段收敛为 selected 一个，
	// 不接受调用方传字段名
	UpdateSelected(ctx context.Context, postID string, selected bool) error

	// 事务
	WithTx(tx *gorm.DB) PostRepository
	Transaction(ctx context.Context, fn func(txRepo PostRepository) error) error
}

// ==================== 仓储实现 ====================

type postRepo struct {
	db *gorm.DB
}

// NewPostRepository 创建帖子仓储
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) GetByID(ctx context.Context, postID string) (*model.InstagramPost, error) {
	var post model.InstagramPost
	err := r.db.WithContext(ctx).
		Where("id = ?", postID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) ListByAccount(ctx context.Context, accountID int64) ([]model.InstagramPost, error) {
	var posts []model.InstagramPost
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("timestamp DESC").
		Find(&posts).Error
	return posts, err
}

func (r *postRepo) ListSelectedWithProducts(ctx context.Context) ([]model.InstagramPost, error) {
	var posts []model.InstagramPost
	err := r.db.WithContext(ctx).
		Preload("Products").
		Where("selected = ?", true).
		Order("timestamp DESC").
		Find(&posts).Error
	return posts, err
}

func (r *postRepo) Filter(ctx context.Context, filter PostFilter) ([]model.InstagramPost, error) {
	query := r.db.WithContext(ctx).
		Where("username = ?", filter.Username)

	if filter.Search != "" {
		// 与原始口径一致：区分大小写的 contains
		query = query.Where("caption LIKE ?", "%"+filter.Search+"%")
	}
	if filter.MediaType != "" && filter.MediaType != "all" {
		query = query.Where("media_type = ?", filter.MediaType)
	}

	var posts []model.InstagramPost
	err := query.Order("timestamp DESC").Find(&posts).Error
	return posts, err
}

func (r *postRepo) InsertMissing(ctx context.Context, posts []model.InstagramPost) (int, error) {
	inserted := 0
	for i := range posts {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&model.InstagramPost{}).
			Where("id = ?", posts[i].ID).
			Count(&count).Error; err != nil {
			return inserted, err
		}
		if count > 0 {
			// 已存在的帖子（含商家勾选状态）绝不覆盖
			continue
		}
		if err := r.db.WithContext(ctx).Create(&posts[i]).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *postRepo) ReplaceForAccount(ctx context.Context, accountID int64, posts []model.InstagramPost) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id IN (?)", tx.Model(&model.InstagramPost{}).
			Select("id").Where("account_id = ?", accountID)).
			Delete(&model.InstagramPostProduct{}).Error; err != nil {
			return err
		}

		if err := tx.Where("account_id = ?", accountID).
			Delete(&model.InstagramPost{}).Error; err != nil {
			return err
		}

		if len(posts) == 0 {
			return nil
		}
		return tx.CreateInBatches(posts, 100).Error
	})
}

func (r *postRepo) UpdateSelected(ctx context.Context, postID string, selected bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.InstagramPost{}).
		Where("id = ?", postID).
		Update("selected", selected)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepo) WithTx(tx *gorm.DB) PostRepository {
	return &postRepo{db: tx}
}

func (r *postRepo) Transaction(ctx context.Context, fn func(txRepo PostRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
