package repository

import (
	"context"

	"gorm.io/gorm"

	"instafeed_dev_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// PostProductRepository 帖子-商品关联仓储接口
// (postId, productId) 的唯一性由 service 层在插入前用 Exists 检查，
// 这里不建唯一索引，与原始数据口径一致
type PostProductRepository interface {
	Create(ctx context.Context, link *model.InstagramPostProduct) error
	Exists(ctx context.Context, postID, productID string) (bool, error)
	// ListByPost 某帖子下的全部关联，按关联时间倒序
	ListByPost(ctx context.Context, postID string) ([]model.InstagramPostProduct, error)
	// Delete 删除匹配的关联行（唯一性不变量下最多一行），返回删除条数
	Delete(ctx context.Context, postID, productID string) (int64, error)
	// CountByAccount 账号下 postId -> 关联商品数 的聚合 (前端角标)
	CountByAccount(ctx context.Context, accountID int64) (map[string]int64, error)

	// 事务
	WithTx(tx *gorm.DB) PostProductRepository
}

// ==================== 仓储实现 ====================

type postProductRepo struct {
	db *gorm.DB
}

// NewPostProductRepository 创建关联仓储
func NewPostProductRepository(db *gorm.DB) PostProductRepository {
	return &postProductRepo{db: db}
}

func (r *postProductRepo) Create(ctx context.Context, link *model.InstagramPostProduct) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *postProductRepo) Exists(ctx context.Context, postID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.InstagramPostProduct{}).
		Where("post_id = ? AND product_id = ?", postID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *postProductRepo) ListByPost(ctx context.Context, postID string) ([]model.InstagramPostProduct, error) {
	var links []model.InstagramPostProduct
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Find(&links).Error
	return links, err
}

func (r *postProductRepo) Delete(ctx context.Context, postID, productID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND product_id = ?", postID, productID).
		Delete(&model.InstagramPostProduct{})
	return result.RowsAffected, result.Error
}

func (r *postProductRepo) CountByAccount(ctx context.Context, accountID int64) (map[string]int64, error) {
	type row struct {
		PostID string
		Cnt    int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.InstagramPostProduct{}).
		Select("instagram_post_products.post_id AS post_id, COUNT(*) AS cnt").
		Joins("JOIN instagram_posts ON instagram_posts.id = instagram_post_products.post_id").
		Where("instagram_posts.account_id = ?", accountID).
		Group("instagram_post_products.post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.PostID] = r.Cnt
	}
	return counts, nil
}

func (r *postProductRepo) WithTx(tx *gorm.DB) PostProductRepository {
	return &postProductRepo{db: tx}
}
