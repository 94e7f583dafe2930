package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"instafeed_dev_v1_202608/internal/model"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/pkg/instagram"
)

// TokenRefresher 长效 token 刷新调用 (生产实现为 *instagram.Client)
type TokenRefresher interface {
	RefreshLongLived(ctx context.Context, accessToken string) (*instagram.LongLivedToken, error)
}

// TokenTask Instagram 长效 token 保活任务
// 长效 token 有效期 60 天，刷新窗口要求 token 至少 24 小时龄，
// 这里每天凌晨跑一次，把 10 天内到期的都续上
type TokenTask struct {
	AccountRepo repository.AccountRepository
	Refresher   TokenRefresher
	Cron        *cron.Cron

	// 控制并发刷新的数量，防止触发 Instagram 限流
	concurrencyLimit int
	sleepTime        time.Duration
	expiringDays     int
}

func NewTokenTask(accountRepo repository.AccountRepository, refresher TokenRefresher) *TokenTask {
	return &TokenTask{
		AccountRepo:      accountRepo,
		Refresher:        refresher,
		Cron:             cron.New(cron.WithSeconds()), // 支持秒级控制
		concurrencyLimit: 10,
		sleepTime:        100 * time.Millisecond, // 每个协程启动间隔，平滑波峰
		expiringDays:     10,
	}
}

// Start 启动定时任务
func (t *TokenTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		log.Println("[Task] 服务启动，正在执行首次 Token 检查...")
		t.refreshJob(ctx)
	}()

	// 每天凌晨 3 点
	_, err := t.Cron.AddFunc("0 0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		t.refreshJob(ctx)
	})

	if err != nil {
		log.Fatalf("无法启动 Token 定时任务: %v", err)
	}

	t.Cron.Start()
	log.Println("Token 保活任务已启动 (每天 03:00 检查一次)")
}

// Stop 停止定时任务
func (t *TokenTask) Stop() {
	t.Cron.Stop()
}

// refreshJob 自动刷新逻辑
func (t *TokenTask) refreshJob(ctx context.Context) {
	accounts, err := t.AccountRepo.ListExpiring(ctx, t.expiringDays)
	if err != nil {
		log.Printf("[Cron] 账号过期状态查询失败: %v", err)
		return
	}

	if len(accounts) == 0 {
		log.Println("[Cron] 没有需要刷新的账号")
		return
	}

	// 信号量通道限制并发
	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	log.Printf("[Cron] 开始处理 %d 个账号的 Token 刷新，并发上限: %d", len(accounts), t.concurrencyLimit)

	for _, account := range accounts {
		select {
		case <-ctx.Done():
			log.Println("[Cron] 任务超时停止")
			return
		default:
		}

		sem <- struct{}{}
		wg.Add(1)

		time.Sleep(t.sleepTime)

		go func(a model.InstagramAccount) {
			defer wg.Done()
			defer func() { <-sem }()

			refreshed, err := t.Refresher.RefreshLongLived(ctx, a.InstagramToken)
			if err != nil {
				// 日志仅记录，不中断其他协程
				log.Printf("[Cron] 账号 [@%s] 刷新失败: %v", a.InstagramUsername, err)
				return
			}

			expiresAt := time.Now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)
			if err := t.AccountRepo.UpdateToken(ctx, a.ID, refreshed.AccessToken, expiresAt); err != nil {
				log.Printf("[Cron] 账号 [@%s] Token 落库失败: %v", a.InstagramUsername, err)
			}
		}(account)
	}

	wg.Wait()
	log.Println("[Cron] 本轮 Token 刷新任务完成")
}
