package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"instafeed_dev_v1_202608/internal/model"
)

func setupAccountTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.InstagramAccount{},
		&model.InstagramPost{},
		&model.InstagramPostProduct{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	return db
}

func testAccount(igID, username string) *model.InstagramAccount {
	return &model.InstagramAccount{
		InstagramID:           igID,
		InstagramUsername:     username,
		InstagramToken:        "token-" + igID,
		InstagramTokenExpires: time.Now().Add(60 * 24 * time.Hour),
		AccountType:           model.AccountTypeBusiness,
	}
}

func TestAccountRepo_UpsertIdempotent(t *testing.T) {
	db := setupAccountTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	if err := repo.Upsert(ctx, testAccount("17840001", "old_name")); err != nil {
		t.Fatalf("首次 Upsert 失败: %v", err)
	}

	// 同一 instagram_id 重复授权，用户名和 token 变了
	updated := testAccount("17840001", "new_name")
	updated.InstagramToken = "refreshed-token"
	if err := repo.Upsert(ctx, updated); err != nil {
		t.Fatalf("二次 Upsert 失败: %v", err)
	}

	var count int64
	db.Model(&model.InstagramAccount{}).Count(&count)
	assert.Equal(t, int64(1), count, "重复授权同一账号应只有一行")

	saved, err := repo.GetByInstagramID(ctx, "17840001")
	if err != nil {
		t.Fatalf("GetByInstagramID() error = %v", err)
	}
	assert.Equal(t, "new_name", saved.InstagramUsername)
	assert.Equal(t, "refreshed-token", saved.InstagramToken)
}

func TestAccountRepo_GetByInstagramID_NotFound(t *testing.T) {
	db := setupAccountTestDB(t)
	repo := NewAccountRepository(db)

	_, err := repo.GetByInstagramID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("应返回 ErrAccountNotFound，实际 %v", err)
	}
}

func TestAccountRepo_ListExpiring(t *testing.T) {
	db := setupAccountTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	soon := testAccount("1", "expiring_soon")
	soon.InstagramTokenExpires = time.Now().Add(3 * 24 * time.Hour)
	later := testAccount("2", "expiring_later")
	later.InstagramTokenExpires = time.Now().Add(30 * 24 * time.Hour)

	repo.Upsert(ctx, soon)
	repo.Upsert(ctx, later)

	expiring, err := repo.ListExpiring(ctx, 10)
	if err != nil {
		t.Fatalf("ListExpiring() error = %v", err)
	}
	if len(expiring) != 1 {
		t.Fatalf("10 天窗口内应只有 1 个账号，实际 %d 个", len(expiring))
	}
	if expiring[0].InstagramUsername != "expiring_soon" {
		t.Errorf("命中的账号不对: %s", expiring[0].InstagramUsername)
	}
}

func TestAccountRepo_UpdateToken(t *testing.T) {
	db := setupAccountTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	repo.Upsert(ctx, testAccount("1", "demo"))
	account, _ := repo.GetByInstagramID(ctx, "1")

	newExpiry := time.Now().Add(60 * 24 * time.Hour)
	if err := repo.UpdateToken(ctx, account.ID, "renewed", newExpiry); err != nil {
		t.Fatalf("UpdateToken() error = %v", err)
	}

	saved, _ := repo.GetByID(ctx, account.ID)
	if saved.InstagramToken != "renewed" {
		t.Errorf("token 应被更新，实际 %s", saved.InstagramToken)
	}
}

func TestAccountRepo_DeleteCascade(t *testing.T) {
	db := setupAccountTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	repo.Upsert(ctx, testAccount("1", "demo"))
	account, _ := repo.GetByInstagramID(ctx, "1")

	// 造两条帖子，其中一条挂商品
	posts := []model.InstagramPost{
		{ID: "p1", MediaType: model.MediaTypeImage, Permalink: "https://ig/p1", Timestamp: time.Now(), Username: "demo", AccountID: account.ID},
		{ID: "p2", MediaType: model.MediaTypeVideo, Permalink: "https://ig/p2", Timestamp: time.Now(), Username: "demo", AccountID: account.ID, Selected: true},
	}
	if err := db.Create(&posts).Error; err != nil {
		t.Fatalf("造帖子失败: %v", err)
	}
	link := model.InstagramPostProduct{PostID: "p2", ProductID: "gid://shopify/Product/1", ProductTitle: "Mug", ProductHandle: "mug"}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("造商品关联失败: %v", err)
	}

	preview, err := repo.DeletionPreview(ctx, account.ID)
	if err != nil {
		t.Fatalf("DeletionPreview() error = %v", err)
	}
	assert.Equal(t, int64(2), preview.PostsCount)
	assert.Equal(t, int64(1), preview.SelectedPostsCount)
	assert.Equal(t, int64(1), preview.ProductLinksCount)

	if err := repo.DeleteCascade(ctx, account.ID); err != nil {
		t.Fatalf("DeleteCascade() error = %v", err)
	}

	var accounts, postRows, linkRows int64
	db.Model(&model.InstagramAccount{}).Count(&accounts)
	db.Model(&model.InstagramPost{}).Count(&postRows)
	db.Model(&model.InstagramPostProduct{}).Count(&linkRows)
	assert.Zero(t, accounts, "级联删除后不应有账号残留")
	assert.Zero(t, postRows, "级联删除后不应有帖子残留")
	assert.Zero(t, linkRows, "级联删除后不应有商品关联残留")
}

func TestAccountRepo_DeleteCascade_NotFound(t *testing.T) {
	db := setupAccountTestDB(t)
	repo := NewAccountRepository(db)

	err := repo.DeleteCascade(context.Background(), 9999)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("删除不存在的账号应返回 ErrAccountNotFound，实际 %v", err)
	}
}
