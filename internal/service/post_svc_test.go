package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"instafeed_dev_v1_202608/internal/model"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/pkg/instagram"
)

// ==================== 测试替身 ====================

type fakeMedia struct {
	media    []instagram.Media
	fetchErr error
	calls    int
}

func (f *fakeMedia) FetchAllMedia(ctx context.Context, accessToken string) ([]instagram.Media, error) {
	f.calls++
	return f.media, f.fetchErr
}

func igMedia(id, ts string) instagram.Media {
	return instagram.Media{
		ID:        id,
		MediaType: "IMAGE",
		MediaURL:  "https://cdn.ig/" + id + ".jpg",
		Permalink: "https://instagram.com/p/" + id,
		Timestamp: ts,
		Username:  "demo",
	}
}

func setupPostSvc(t *testing.T, media *fakeMedia) (*PostService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.InstagramAccount{}, &model.InstagramPost{}, &model.InstagramPostProduct{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	account := &model.InstagramAccount{
		InstagramID:           "1",
		InstagramUsername:     "demo",
		InstagramToken:        "token",
		InstagramTokenExpires: time.Now().Add(24 * time.Hour),
		AccountType:           model.AccountTypeBusiness,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("造账号失败: %v", err)
	}

	svc := NewPostService(
		repository.NewPostRepository(db),
		repository.NewAccountRepository(db),
		media,
	)
	return svc, db
}

// ==================== 测试 ====================

func TestLoadAccountPosts_FirstLoadFetches(t *testing.T) {
	media := &fakeMedia{media: []instagram.Media{
		igMedia("m1", "2026-08-01T10:00:00+0000"),
		igMedia("m2", "2026-08-02T10:00:00+0000"),
	}}
	svc, _ := setupPostSvc(t, media)
	ctx := context.Background()

	posts, err := svc.LoadAccountPosts(ctx, "demo")
	if err != nil {
		t.Fatalf("LoadAccountPosts() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("应入库 2 条帖子，实际 %d 条", len(posts))
	}
	if posts[0].ID != "m2" {
		t.Errorf("应按发帖时间倒序，首条是 %s", posts[0].ID)
	}

	// 第二次加载走缓存，不再请求上游
	if _, err := svc.LoadAccountPosts(ctx, "demo"); err != nil {
		t.Fatalf("二次加载失败: %v", err)
	}
	if media.calls != 1 {
		t.Errorf("有缓存时不应再拉上游，实际拉了 %d 次", media.calls)
	}
}

func TestLoadAccountPosts_UnknownAccount(t *testing.T) {
	svc, _ := setupPostSvc(t, &fakeMedia{})

	_, err := svc.LoadAccountPosts(context.Background(), "nobody")
	if !errors.Is(err, repository.ErrAccountNotFound) {
		t.Fatalf("未知账号应返回 ErrAccountNotFound，实际 %v", err)
	}
}

func TestRefreshPosts_ReplacesAll(t *testing.T) {
	media := &fakeMedia{media: []instagram.Media{
		igMedia("old", "2026-08-01T10:00:00+0000"),
	}}
	svc, db := setupPostSvc(t, media)
	ctx := context.Background()

	if _, err := svc.LoadAccountPosts(ctx, "demo"); err != nil {
		t.Fatalf("首次加载失败: %v", err)
	}

	// 上游内容整体换掉
	media.media = []instagram.Media{
		igMedia("new1", "2026-08-10T10:00:00+0000"),
		igMedia("new2", "2026-08-11T10:00:00+0000"),
	}
	posts, err := svc.RefreshPosts(ctx, "demo")
	if err != nil {
		t.Fatalf("RefreshPosts() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("刷新后应只有新帖，实际 %d 条", len(posts))
	}

	var oldCount int64
	db.Model(&model.InstagramPost{}).Where("id = ?", "old").Count(&oldCount)
	if oldCount != 0 {
		t.Error("旧帖应被整体替换掉")
	}
}

func TestRefreshPosts_FetchFailureLeavesDBUntouched(t *testing.T) {
	media := &fakeMedia{media: []instagram.Media{
		igMedia("keep", "2026-08-01T10:00:00+0000"),
	}}
	svc, db := setupPostSvc(t, media)
	ctx := context.Background()

	svc.LoadAccountPosts(ctx, "demo")

	// 拉取失败，库里的帖子必须原样保留
	media.fetchErr = errors.New("rate limited")
	if _, err := svc.RefreshPosts(ctx, "demo"); err == nil {
		t.Fatal("拉取失败时刷新应报错")
	}

	var count int64
	db.Model(&model.InstagramPost{}).Count(&count)
	if count != 1 {
		t.Errorf("拉取失败不应动库，实际剩 %d 条", count)
	}
}

func TestRefreshPosts_BadTimestampFailsWholeBatch(t *testing.T) {
	media := &fakeMedia{media: []instagram.Media{
		igMedia("ok", "2026-08-01T10:00:00+0000"),
		igMedia("bad", "not-a-timestamp"),
	}}
	svc, db := setupPostSvc(t, media)

	if _, err := svc.RefreshPosts(context.Background(), "demo"); err == nil {
		t.Fatal("任一条时间戳非法应整批失败")
	}

	var count int64
	db.Model(&model.InstagramPost{}).Count(&count)
	if count != 0 {
		t.Errorf("整批失败不应有半截数据入库，实际 %d 条", count)
	}
}

func TestDeleteAccount_ReleasesRefreshLock(t *testing.T) {
	media := &fakeMedia{media: []instagram.Media{
		igMedia("m1", "2026-08-01T10:00:00+0000"),
	}}
	svc, db := setupPostSvc(t, media)
	ctx := context.Background()

	if _, err := svc.RefreshPosts(ctx, "demo"); err != nil {
		t.Fatalf("RefreshPosts() error = %v", err)
	}

	var account model.InstagramAccount
	db.First(&account, "instagram_username = ?", "demo")
	if _, ok := svc.refreshLocks.Load(account.ID); !ok {
		t.Fatal("刷新后应持有账号级刷新锁")
	}

	accountSvc := NewAccountService(repository.NewAccountRepository(db), svc)
	if err := accountSvc.DeleteAccount(ctx, account.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	// 删号后锁表不应残留该账号的条目
	if _, ok := svc.refreshLocks.Load(account.ID); ok {
		t.Error("删号后刷新锁应被清理")
	}
}

func TestSetSelected(t *testing.T) {
	media := &fakeMedia{media: []instagram.Media{
		igMedia("m1", "2026-08-01T10:00:00+0000"),
	}}
	svc, db := setupPostSvc(t, media)
	ctx := context.Background()

	svc.LoadAccountPosts(ctx, "demo")

	posts, err := svc.SetSelected(ctx, "m1", true)
	if err != nil {
		t.Fatalf("SetSelected() error = %v", err)
	}
	if len(posts) != 1 || !posts[0].Selected {
		t.Errorf("返回的列表应反映最新选中状态: %+v", posts)
	}

	var saved model.InstagramPost
	db.First(&saved, "id = ?", "m1")
	if !saved.Selected {
		t.Error("选中状态应已落库")
	}

	if _, err := svc.SetSelected(ctx, "ghost", true); !errors.Is(err, repository.ErrPostNotFound) {
		t.Errorf("不存在的帖子应返回 ErrPostNotFound，实际 %v", err)
	}
}
