package service

import (
	"context"
	"fmt"
	"time"

	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/pkg/shopify"
)

// ==================== 计费客户端接口 ====================

// BillingClient 订阅相关的 Admin GraphQL 调用 (生产实现为 *shopify.Client)
type BillingClient interface {
	GetSubscriptionStatus(ctx context.Context, shopDomain, accessToken string) ([]shopify.ActiveSubscription, error)
	CreateSubscription(ctx context.Context, shopDomain, accessToken, returnURL string, test bool) (*shopify.CreateSubscriptionResult, error)
	CancelSubscription(ctx context.Context, shopDomain, accessToken, subscriptionID string) error
}

// ==================== 订阅状态 ====================

// SubscriptionState 订阅门禁的判定结果
type SubscriptionState struct {
	Active              bool       `json:"active"`
	TrialActive         bool       `json:"trialActive"`
	TrialEndDate        *time.Time `json:"trialEndDate,omitempty"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate,omitempty"`
	BypassEnabled       bool       `json:"bypassEnabled,omitempty"`

	// Subscription 命中的订阅详情 (plan 页展示用)，bypass 或无订阅时为 nil
	Subscription *shopify.ActiveSubscription `json:"subscription,omitempty"`
}

// ==================== 订阅服务 ====================

// SubscriptionService 订阅门禁
// 免费/测试部署可通过 bypass 开关整体放行
type SubscriptionService struct {
	billing  BillingClient
	sessions repository.SessionRepository
	bypass   bool

	// now 可注入，试用期窗口测试用
	now func() time.Time
}

// NewSubscriptionService 工厂方法
func NewSubscriptionService(billing BillingClient, sessions repository.SessionRepository, bypass bool) *SubscriptionService {
	return &SubscriptionService{
		billing:  billing,
		sessions: sessions,
		bypass:   bypass,
		now:      time.Now,
	}
}

// GetState 判定店铺当前的订阅门禁状态
//
// 判定顺序：
//  1. bypass 开关最先检查，命中直接放行，不发任何外部请求
//  2. 无活跃订阅 -> 拒绝
//  3. 取第一条活跃订阅为准（简化假设：每店最多一条活跃订阅；
//     若平台真的出现多条，这里只看 index 0，行为未定义，见设计文档）
//  4. status=ACTIVE 或处于试用窗口 -> 放行
//
// 试用窗口：trialDays > 0 时 trialEnd = createdAt + trialDays 天；
// trialDays == 0 没有试用窗口，只看订阅状态
func (s *SubscriptionService) GetState(ctx context.Context, shop string) (*SubscriptionState, error) {
	if s.bypass {
		return &SubscriptionState{
			Active:        true,
			BypassEnabled: true,
		}, nil
	}

	session, err := s.sessions.GetByShop(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("店铺会话缺失: %w", err)
	}

	subs, err := s.billing.GetSubscriptionStatus(ctx, shop, session.AccessToken)
	if err != nil {
		return nil, err
	}

	if len(subs) == 0 {
		return &SubscriptionState{Active: false}, nil
	}

	sub := subs[0]
	state := &SubscriptionState{
		Subscription:        &sub,
		SubscriptionEndDate: sub.CurrentPeriodEnd,
	}

	if sub.TrialDays > 0 {
		trialEnd := sub.CreatedAt.AddDate(0, 0, sub.TrialDays)
		state.TrialEndDate = &trialEnd
		state.TrialActive = s.now().Before(trialEnd)
	}

	state.Active = sub.Status == "ACTIVE" || state.TrialActive
	return state, nil
}

// Subscribe 创建订阅，返回确认跳转链接
func (s *SubscriptionService) Subscribe(ctx context.Context, shop, returnURL string, test bool) (*shopify.CreateSubscriptionResult, error) {
	session, err := s.sessions.GetByShop(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("店铺会话缺失: %w", err)
	}
	return s.billing.CreateSubscription(ctx, shop, session.AccessToken, returnURL, test)
}

// Cancel 取消订阅
func (s *SubscriptionService) Cancel(ctx context.Context, shop, subscriptionID string) error {
	session, err := s.sessions.GetByShop(ctx, shop)
	if err != nil {
		return fmt.Errorf("店铺会话缺失: %w", err)
	}
	return s.billing.CancelSubscription(ctx, shop, session.AccessToken, subscriptionID)
}
