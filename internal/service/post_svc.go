package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"instafeed_dev_v1_202608/internal/model"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/pkg/instagram"
)

// ErrRefreshInProgress 同一账号的刷新正在进行，拒绝并发的第二次刷新
// 刷新是"先删后插"的替换语义，两次交错执行会把帖子集写花
var ErrRefreshInProgress = errors.New("该账号正在刷新中，请稍后再试")

// ==================== 媒体拉取接口 ====================

// InstagramMedia 媒体拉取 (生产实现为 *instagram.Client)
type InstagramMedia interface {
	FetchAllMedia(ctx context.Context, accessToken string) ([]instagram.Media, error)
}

// ==================== 帖子服务 ====================

// PostService 帖子同步与勾选管理
type PostService struct {
	posts    repository.PostRepository
	accounts repository.AccountRepository
	media    InstagramMedia

	// refreshLocks 账号级咨询锁 (accountID -> *sync.Mutex)
	// 锁内才允许执行替换路径，保证同一账号的删/插不交错
	refreshLocks sync.Map
}

// NewPostService 工厂方法
func NewPostService(posts repository.PostRepository, accounts repository.AccountRepository, media InstagramMedia) *PostService {
	return &PostService{
		posts:    posts,
		accounts: accounts,
		media:    media,
	}
}

// toPostModels DTO -> Model 转换
// 任何一条时间戳解析失败整批失败：坏数据入库比失败更难收拾
func toPostModels(media []instagram.Media, accountID int64) ([]model.InstagramPost, error) {
	posts := make([]model.InstagramPost, 0, len(media))
	for _, m := range media {
		ts, err := m.ParseTimestamp()
		if err != nil {
			return nil, fmt.Errorf("帖子 %s 时间戳非法 (%q): %w", m.ID, m.Timestamp, err)
		}
		posts = append(posts, model.InstagramPost{
			ID:           m.ID,
			MediaType:    m.MediaType,
			MediaURL:     m.MediaURL,
			ThumbnailURL: m.ThumbnailURL,
			Permalink:    m.Permalink,
			Timestamp:    ts,
			Username:     m.Username,
			Caption:      m.Caption,
			AccountID:    accountID,
		})
	}
	return posts, nil
}

// LoadAccountPosts 商家选中某个账号时加载帖子
// 库里已有缓存直接返回；首次选中先全量拉取并增量入库
func (s *PostService) LoadAccountPosts(ctx context.Context, username string) ([]model.InstagramPost, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if len(account.Posts) > 0 {
		return s.posts.ListByAccount(ctx, account.ID)
	}

	media, err := s.media.FetchAllMedia(ctx, account.InstagramToken)
	if err != nil {
		return nil, fmt.Errorf("拉取 Instagram 帖子失败: %w", err)
	}

	posts, err := toPostModels(media, account.ID)
	if err != nil {
		return nil, err
	}

	inserted, err := s.posts.InsertMissing(ctx, posts)
	if err != nil {
		return nil, err
	}
	log.Printf("[Sync] @%s 首次加载: 拉取 %d 条, 入库 %d 条", username, len(media), inserted)

	return s.posts.ListByAccount(ctx, account.ID)
}

// RefreshPosts 全量刷新：重新拉取并整体替换该账号的帖子集
//
// 顺序约束：整个分页拉取成功之后才进入替换事务；拉取中途失败不会动库。
// 并发约束：账号级咨询锁，第二个并发刷新直接拿 ErrRefreshInProgress。
// 代价：替换会丢掉 selected 勾选和商品关联，与原始行为一致，前端有确认弹窗。
func (s *PostService) RefreshPosts(ctx context.Context, username string) ([]model.InstagramPost, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	actual, _ := s.refreshLocks.LoadOrStore(account.ID, &sync.Mutex{})
	lock := actual.(*sync.Mutex)
	if !lock.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer lock.Unlock()

	// 先拉全量，全部成功才动库
	media, err := s.media.FetchAllMedia(ctx, account.InstagramToken)
	if err != nil {
		return nil, fmt.Errorf("拉取 Instagram 帖子失败: %w", err)
	}

	posts, err := toPostModels(media, account.ID)
	if err != nil {
		return nil, err
	}

	if err := s.posts.ReplaceForAccount(ctx, account.ID, posts); err != nil {
		return nil, fmt.Errorf("帖子替换失败: %w", err)
	}
	log.Printf("[Sync] @%s 全量刷新完成: %d 条", username, len(posts))

	return s.posts.ListByAccount(ctx, account.ID)
}

// ReleaseRefreshLock 账号删除后丢弃对应的刷新锁，锁表不随删号增长
func (s *PostService) ReleaseRefreshLock(accountID int64) {
	s.refreshLocks.Delete(accountID)
}

// SetSelected 勾选/取消勾选帖子，返回该帖子所属账号的最新帖子列表
func (s *PostService) SetSelected(ctx context.Context, postID string, selected bool) ([]model.InstagramPost, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := s.posts.UpdateSelected(ctx, postID, selected); err != nil {
		return nil, err
	}

	return s.posts.ListByAccount(ctx, post.AccountID)
}

// FilterPosts 按用户名 + caption 子串 + 媒体类型过滤
func (s *PostService) FilterPosts(ctx context.Context, username, search, mediaType string) ([]model.InstagramPost, error) {
	return s.posts.Filter(ctx, repository.PostFilter{
		Username:  username,
		Search:    search,
		MediaType: mediaType,
	})
}

// SelectedFeed 店面 feed：全部已勾选帖子（带商品快照），按发布时间倒序
func (s *PostService) SelectedFeed(ctx context.Context) ([]model.InstagramPost, error) {
	return s.posts.ListSelectedWithProducts(ctx)
}
