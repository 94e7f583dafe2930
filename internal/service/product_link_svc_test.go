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
	"instafeed_dev_v1_202608/pkg/shopify"
)

func setupLinkSvc(t *testing.T) (*ProductLinkService, *gorm.DB) {
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
	db.Create(account)
	db.Create(&model.InstagramPost{
		ID:        "p1",
		MediaType: model.MediaTypeImage,
		Permalink: "https://instagram.com/p/p1",
		Timestamp: time.Now(),
		Username:  "demo",
		AccountID: account.ID,
	})

	svc := NewProductLinkService(
		repository.NewPostProductRepository(db),
		repository.NewPostRepository(db),
		newFakeSessionRepo(),
		nil, // Admin GraphQL 不在本组测试范围
	)
	return svc, db
}

func testProduct() shopify.ProductBrief {
	price := "19.99"
	return shopify.ProductBrief{
		ID:     "gid://shopify/Product/1001",
		Title:  "Ceramic Mug",
		Handle: "ceramic-mug",
		Price:  &price,
	}
}

func TestLinkProduct_DuplicateIsTypedOutcome(t *testing.T) {
	svc, db := setupLinkSvc(t)
	ctx := context.Background()

	link, err := svc.LinkProduct(ctx, "p1", testProduct())
	if err != nil {
		t.Fatalf("首次关联失败: %v", err)
	}
	if link.ProductTitle != "Ceramic Mug" || link.ProductPrice == nil {
		t.Errorf("关联应保存商品快照: %+v", link)
	}

	// 同一 (post, product) 再关联一次
	_, err = svc.LinkProduct(ctx, "p1", testProduct())
	if !errors.Is(err, ErrDuplicateLink) {
		t.Fatalf("重复关联应返回 ErrDuplicateLink，实际 %v", err)
	}

	var count int64
	db.Model(&model.InstagramPostProduct{}).Count(&count)
	if count != 1 {
		t.Errorf("重复关联不应产生第二行，实际 %d 行", count)
	}
}

func TestLinkProduct_UnknownPost(t *testing.T) {
	svc, _ := setupLinkSvc(t)

	_, err := svc.LinkProduct(context.Background(), "ghost", testProduct())
	if !errors.Is(err, repository.ErrPostNotFound) {
		t.Fatalf("帖子不存在应返回 ErrPostNotFound，实际 %v", err)
	}
}

func TestUnlinkProduct(t *testing.T) {
	svc, db := setupLinkSvc(t)
	ctx := context.Background()

	svc.LinkProduct(ctx, "p1", testProduct())
	if err := svc.UnlinkProduct(ctx, "p1", "gid://shopify/Product/1001"); err != nil {
		t.Fatalf("UnlinkProduct() error = %v", err)
	}

	var count int64
	db.Model(&model.InstagramPostProduct{}).Count(&count)
	if count != 0 {
		t.Errorf("解除关联后应无残留，实际 %d 行", count)
	}

	// 解除不存在的关联静默成功
	if err := svc.UnlinkProduct(ctx, "p1", "gid://shopify/Product/9999"); err != nil {
		t.Errorf("解除不存在的关联不应报错: %v", err)
	}
}
