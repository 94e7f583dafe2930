package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"instafeed_dev_v1_202608/internal/model"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/pkg/instagram"
	"instafeed_dev_v1_202608/pkg/shopify"
	"instafeed_dev_v1_202608/pkg/utils"
)

// ErrInvalidState OAuth state 失效或被篡改
var ErrInvalidState = errors.New("授权超时或 state 无效，请重新发起")

// ==================== Instagram 客户端接口 ====================

// InstagramOAuth 授权相关的 Graph API 调用 (生产实现为 *instagram.Client)
type InstagramOAuth interface {
	BuildAuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*instagram.ShortLivedToken, error)
	ExchangeLongLived(ctx context.Context, shortToken string) (*instagram.LongLivedToken, error)
	GetProfile(ctx context.Context, accessToken string) (*instagram.Profile, error)
}

// ==================== 授权服务 ====================

// AuthService 两条 OAuth 链路：
//  1. Instagram 商家账号授权（换长效 token 后 upsert 账号）
//  2. Shopify 应用安装（换离线 token 后落 session）
type AuthService struct {
	instagram InstagramOAuth
	accounts  repository.AccountRepository
	sessions  repository.SessionRepository
	shopify   *shopify.Client

	apiKey    string // Shopify API key
	apiSecret string // Shopify API secret
	scopes    string
	appURL    string
}

// AuthConfig 授权配置
type AuthConfig struct {
	ShopifyAPIKey    string
	ShopifyAPISecret string
	ShopifyScopes    string
	AppURL           string
}

// NewAuthService 工厂方法
func NewAuthService(
	ig InstagramOAuth,
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	sfy *shopify.Client,
	cfg *AuthConfig,
) *AuthService {
	return &AuthService{
		instagram: ig,
		accounts:  accounts,
		sessions:  sessions,
		shopify:   sfy,
		apiKey:    cfg.ShopifyAPIKey,
		apiSecret: cfg.ShopifyAPISecret,
		scopes:    cfg.ShopifyScopes,
		appURL:    cfg.AppURL,
	}
}

// ==================== Instagram 授权 ====================

// GenerateInstagramLoginURL 生成 Instagram 授权链接
// state 缓存 shop 域名，回调时还原上下文
func (s *AuthService) GenerateInstagramLoginURL(shop string) (string, error) {
	state, err := utils.GenerateRandomString(16)
	if err != nil {
		return "", err
	}
	utils.SetCache(state, shop)

	return s.instagram.BuildAuthorizeURL(state), nil
}

// HandleInstagramCallback 处理 Instagram 回调
// code -> 短效 token -> 长效 token -> 账号信息 -> upsert
// 重复授权同一账号只会更新 token，不会产生第二行
func (s *AuthService) HandleInstagramCallback(ctx context.Context, code, state string) (*model.InstagramAccount, error) {
	if _, exists := utils.GetCache(state); !exists {
		return nil, ErrInvalidState
	}
	utils.DeleteCache(state) // 用完即焚

	shortToken, err := s.instagram.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	longToken, err := s.instagram.ExchangeLongLived(ctx, shortToken.AccessToken)
	if err != nil {
		return nil, err
	}

	profile, err := s.instagram.GetProfile(ctx, longToken.AccessToken)
	if err != nil {
		return nil, err
	}

	account := &model.InstagramAccount{
		InstagramID:           profile.ID,
		InstagramUsername:     profile.Username,
		InstagramToken:        longToken.AccessToken,
		InstagramTokenExpires: time.Now().Add(time.Duration(longToken.ExpiresIn) * time.Second),
		AccountType:           profile.AccountType,
	}

	if err := s.accounts.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("账号保存失败: %w", err)
	}

	// Upsert 冲突更新时 account.ID 不回填，按 instagram_id 再查一次
	saved, err := s.accounts.GetByInstagramID(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("[Auth] Instagram 账号已连接: @%s (%s)", saved.InstagramUsername, saved.AccountType)
	return saved, nil
}

// ==================== Shopify 安装 ====================

// GenerateInstallURL 生成应用安装授权链接
func (s *AuthService) GenerateInstallURL(shop string) (string, error) {
	if !shopify.IsValidShopDomain(shop) {
		return "", fmt.Errorf("非法的店铺域名: %s", shop)
	}

	state, err := utils.GenerateRandomString(24)
	if err != nil {
		return "", err
	}
	utils.SetCache(state, shop)

	redirectURI := s.appURL + "/api/auth/shopify/callback"
	return shopify.BuildAuthorizeURL(shop, s.apiKey, s.scopes, redirectURI, state), nil
}

// HandleInstallCallback 处理安装回调，换离线 token 并落 session
// hmac 校验由 controller 在进入 service 前完成
func (s *AuthService) HandleInstallCallback(ctx context.Context, shop, code, state string) (*model.Session, error) {
	cachedShop, exists := utils.GetCache(state)
	if !exists || cachedShop != shop {
		return nil, ErrInvalidState
	}
	utils.DeleteCache(state)

	if !shopify.IsValidShopDomain(shop) {
		return nil, fmt.Errorf("非法的店铺域名: %s", shop)
	}

	token, err := s.shopify.ExchangeCode(ctx, shop, s.apiKey, s.apiSecret, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &model.Session{
		Shop:        shop,
		AccessToken: token.AccessToken,
		Scope:       token.Scope,
		InstalledAt: &now,
	}
	if err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, fmt.Errorf("会话保存失败: %w", err)
	}

	log.Printf("[Auth] 应用安装完成: %s (scope: %s)", shop, token.Scope)
	return session, nil
}
