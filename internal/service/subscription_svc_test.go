package service

import (
	"context"
	"testing"
	"time"

	"instafeed_dev_v1_202608/internal/model"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/pkg/shopify"
)

// ==================== 测试替身 ====================

type fakeBilling struct {
	subs      []shopify.ActiveSubscription
	statusErr error
	calls     int
}

func (f *fakeBilling) GetSubscriptionStatus(ctx context.Context, shopDomain, accessToken string) ([]shopify.ActiveSubscription, error) {
	f.calls++
	return f.subs, f.statusErr
}

func (f *fakeBilling) CreateSubscription(ctx context.Context, shopDomain, accessToken, returnURL string, test bool) (*shopify.CreateSubscriptionResult, error) {
	return &shopify.CreateSubscriptionResult{
		SubscriptionID:  "gid://shopify/AppSubscription/1",
		ConfirmationURL: "https://example.myshopify.com/confirm",
	}, nil
}

func (f *fakeBilling) CancelSubscription(ctx context.Context, shopDomain, accessToken, subscriptionID string) error {
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*model.Session
}

func newFakeSessionRepo(shops ...string) *fakeSessionRepo {
	repo := &fakeSessionRepo{sessions: map[string]*model.Session{}}
	for _, shop := range shops {
		repo.sessions[shop] = &model.Session{Shop: shop, AccessToken: "offline-token"}
	}
	return repo
}

func (f *fakeSessionRepo) Upsert(ctx context.Context, session *model.Session) error {
	f.sessions[session.Shop] = session
	return nil
}

func (f *fakeSessionRepo) GetByShop(ctx context.Context, shop string) (*model.Session, error) {
	if s, ok := f.sessions[shop]; ok {
		return s, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionRepo) DeleteByShop(ctx context.Context, shop string) error {
	delete(f.sessions, shop)
	return nil
}

// ==================== 测试 ====================

const testShop = "example.myshopify.com"

func TestSubscriptionGetState_BypassSkipsBilling(t *testing.T) {
	billing := &fakeBilling{}
	svc := NewSubscriptionService(billing, newFakeSessionRepo(testShop), true)

	state, err := svc.GetState(context.Background(), testShop)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}

	if !state.Active || !state.BypassEnabled {
		t.Errorf("bypass 开启时应直接放行: %+v", state)
	}
	if billing.calls != 0 {
		t.Errorf("bypass 不应发起任何计费查询，实际调用 %d 次", billing.calls)
	}
}

func TestSubscriptionGetState_NoSubscription(t *testing.T) {
	billing := &fakeBilling{}
	svc := NewSubscriptionService(billing, newFakeSessionRepo(testShop), false)

	state, err := svc.GetState(context.Background(), testShop)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Active {
		t.Error("无订阅时不应放行")
	}
}

func TestSubscriptionGetState_TrialWindow(t *testing.T) {
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	billing := &fakeBilling{
		subs: []shopify.ActiveSubscription{{
			ID:        "gid://shopify/AppSubscription/1",
			Name:      "Pro Plan",
			Status:    "PENDING",
			CreatedAt: created,
			TrialDays: 7,
		}},
	}
	svc := NewSubscriptionService(billing, newFakeSessionRepo(testShop), false)

	// 试用第 6 天：窗口内放行
	svc.now = func() time.Time { return created.AddDate(0, 0, 6) }
	state, err := svc.GetState(context.Background(), testShop)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Active || !state.TrialActive {
		t.Errorf("试用第 6 天应放行: %+v", state)
	}
	if state.TrialEndDate == nil || !state.TrialEndDate.Equal(created.AddDate(0, 0, 7)) {
		t.Errorf("试用截止日不符: %v", state.TrialEndDate)
	}

	// 试用第 8 天：窗口外且状态非 ACTIVE，拒绝
	svc.now = func() time.Time { return created.AddDate(0, 0, 8) }
	state, _ = svc.GetState(context.Background(), testShop)
	if state.Active || state.TrialActive {
		t.Errorf("试用过期且未付款不应放行: %+v", state)
	}
}

func TestSubscriptionGetState_ActiveWithoutTrial(t *testing.T) {
	billing := &fakeBilling{
		subs: []shopify.ActiveSubscription{{
			ID:        "gid://shopify/AppSubscription/2",
			Name:      "Pro Plan",
			Status:    "ACTIVE",
			CreatedAt: time.Now().AddDate(0, -1, 0),
			TrialDays: 0,
		}},
	}
	svc := NewSubscriptionService(billing, newFakeSessionRepo(testShop), false)

	state, err := svc.GetState(context.Background(), testShop)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Active {
		t.Error("ACTIVE 订阅应放行")
	}
	if state.TrialActive || state.TrialEndDate != nil {
		t.Errorf("trialDays=0 不应有试用窗口: %+v", state)
	}
}

func TestSubscriptionGetState_MissingSession(t *testing.T) {
	svc := NewSubscriptionService(&fakeBilling{}, newFakeSessionRepo(), false)

	if _, err := svc.GetState(context.Background(), testShop); err == nil {
		t.Fatal("无店铺会话时应报错")
	}
}
