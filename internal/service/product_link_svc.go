package service

import (
	"context"
	"errors"
	"fmt"

	"instafeed_dev_v1_202608/internal/model"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/pkg/shopify"
)

// ErrDuplicateLink 商品已关联到该帖子
// 这是预期内的可恢复状态，不是故障；controller 据此返回温和提示而非 500
var ErrDuplicateLink = errors.New("duplicate")

// ==================== 商品关联服务 ====================

// ProductLinkService 帖子-商品关联管理
type ProductLinkService struct {
	links    repository.PostProductRepository
	posts    repository.PostRepository
	sessions repository.SessionRepository
	admin    *shopify.Client
}

// NewProductLinkService 工厂方法
func NewProductLinkService(
	links repository.PostProductRepository,
	posts repository.PostRepository,
	sessions repository.SessionRepository,
	admin *shopify.Client,
) *ProductLinkService {
	return &ProductLinkService{
		links:    links,
		posts:    posts,
		sessions: sessions,
		admin:    admin,
	}
}

// LinkProduct 关联商品到帖子，商品字段取关联时刻的快照
// 已关联返回 ErrDuplicateLink 且不产生第二行
func (s *ProductLinkService) LinkProduct(ctx context.Context, postID string, product shopify.ProductBrief) (*model.InstagramPostProduct, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	exists, err := s.links.Exists(ctx, postID, product.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateLink
	}

	link := &model.InstagramPostProduct{
		PostID:        postID,
		ProductID:     product.ID,
		ProductTitle:  product.Title,
		ProductHandle: product.Handle,
		ProductImage:  product.Image,
		ProductPrice:  product.Price,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// UnlinkProduct 解除关联（删除全部匹配行，唯一性不变量下最多一行）
func (s *ProductLinkService) UnlinkProduct(ctx context.Context, postID, productID string) error {
	_, err := s.links.Delete(ctx, postID, productID)
	return err
}

// GetProductsForPost 某帖子下的全部关联商品
func (s *ProductLinkService) GetProductsForPost(ctx context.Context, postID string) ([]model.InstagramPostProduct, error) {
	return s.links.ListByPost(ctx, postID)
}

// GetProductCounts 账号下 postId -> 关联商品数（前端角标）
func (s *ProductLinkService) GetProductCounts(ctx context.Context, accountID int64) (map[string]int64, error) {
	return s.links.CountByAccount(ctx, accountID)
}

// SearchShopProducts 关联弹窗的店铺商品搜索（透传 Admin GraphQL）
func (s *ProductLinkService) SearchShopProducts(ctx context.Context, shop, keyword string, limit int) ([]shopify.ProductBrief, error) {
	session, err := s.sessions.GetByShop(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("店铺会话缺失: %w", err)
	}
	return s.admin.SearchProducts(ctx, shop, session.AccessToken, keyword, limit)
}
