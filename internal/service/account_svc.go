package service

import (
	"context"
	"log"

	"instafeed_dev_v1_202608/internal/model"
	"instafeed_dev_v1_202608/internal/repository"
)

// RefreshLockReleaser 删号后需要清理账号级刷新锁的持有方 (生产实现为 *PostService)
type RefreshLockReleaser interface {
	ReleaseRefreshLock(accountID int64)
}

// AccountService 账号管理
type AccountService struct {
	accounts repository.AccountRepository
	locks    RefreshLockReleaser
}

// NewAccountService 工厂方法，locks 可为 nil
func NewAccountService(accounts repository.AccountRepository, locks RefreshLockReleaser) *AccountService {
	return &AccountService{accounts: accounts, locks: locks}
}

// ListAccounts 全量账号（带帖子）
func (s *AccountService) ListAccounts(ctx context.Context) ([]model.InstagramAccount, error) {
	return s.accounts.List(ctx)
}

// GetDeletionPreview 删除前的统计：帖子数 / 已勾选数 / 商品关联数
func (s *AccountService) GetDeletionPreview(ctx context.Context, accountID int64) (*repository.DeletionPreview, error) {
	return s.accounts.DeletionPreview(ctx, accountID)
}

// DeleteAccount 级联删除账号及其全部帖子、商品关联
// 不存在的账号返回 repository.ErrAccountNotFound，不静默成功
func (s *AccountService) DeleteAccount(ctx context.Context, accountID int64) error {
	preview, err := s.accounts.DeletionPreview(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.accounts.DeleteCascade(ctx, accountID); err != nil {
		return err
	}

	if s.locks != nil {
		s.locks.ReleaseRefreshLock(accountID)
	}

	log.Printf("[Account] 账号 %d 已删除 (帖子 %d 条, 商品关联 %d 条)",
		accountID, preview.PostsCount, preview.ProductLinksCount)
	return nil
}
