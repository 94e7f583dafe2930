package instagram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 业务常量 ====================

const (
	GraphBaseURL = "https://graph.instagram.com"
	OAuthBaseURL = "https://api.instagram.com"

	// 拉取媒体时的字段列表，必须与入库字段保持一致
	mediaFields = "id,caption,media_type,media_url,permalink,thumbnail_url,timestamp,username"

	// DefaultMaxPages 翻页保护上限
	// paging.next 由上游下发，不能无条件信任；超过上限视为 API 异常，整次同步失败
	DefaultMaxPages = 200
)

// ErrTooManyPages 翻页超出保护上限
var ErrTooManyPages = errors.New("instagram: 翻页超出上限，疑似上游分页异常")

// ==================== 客户端 ====================

// Config 客户端配置
type Config struct {
	AppID       string
	AppSecret   string
	RedirectURI string
	Timeout     time.Duration // 单次请求超时
	MaxPages    int           // 翻页上限，0 取默认值
}

// Client Instagram Graph API 客户端
type Client struct {
	http     *resty.Client
	cfg      *Config
	maxPages int
}

// NewClient 工厂方法
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(2) // 只重试读请求层面的网络波动

	return &Client{
		http:     client,
		cfg:      cfg,
		maxPages: maxPages,
	}
}

// ==================== OAuth ====================

// BuildAuthorizeURL 生成授权链接
// state 由调用方缓存，回跳时校验
func (c *Client) BuildAuthorizeURL(state string) string {
	scopes := "instagram_business_basic,instagram_business_manage_messages,instagram_business_manage_comments,instagram_business_content_publish,instagram_business_manage_insights"

	q := url.Values{}
	q.Set("force_reauth", "true")
	q.Set("client_id", c.cfg.AppID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", scopes)
	q.Set("state", state)

	return "https://www.instagram.com/oauth/authorize?" + q.Encode()
}

// ExchangeCode 授权码换短效 token
func (c *Client) ExchangeCode(ctx context.Context, code string) (*ShortLivedToken, error) {
	var token ShortLivedToken
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     c.cfg.AppID,
			"client_secret": c.cfg.AppSecret,
			"grant_type":    "authorization_code",
			"redirect_uri":  c.cfg.RedirectURI,
			"code":          code,
		}).
		SetResult(&token).
		Post(OAuthBaseURL + "/oauth/access_token")

	if err != nil {
		return nil, fmt.Errorf("换取短效 token 失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("换取短效 token 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return &token, nil
}

// ExchangeLongLived 短效 token 换 60 天长效 token
func (c *Client) ExchangeLongLived(ctx context.Context, shortToken string) (*LongLivedToken, error) {
	var token LongLivedToken
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type":    "ig_exchange_token",
			"client_secret": c.cfg.AppSecret,
			"access_token":  shortToken,
		}).
		SetResult(&token).
		Get(GraphBaseURL + "/access_token")

	if err != nil {
		return nil, fmt.Errorf("换取长效 token 失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("换取长效 token 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return &token, nil
}

// RefreshLongLived 长效 token 续期 (需在过期前调用，过期后只能重新授权)
func (c *Client) RefreshLongLived(ctx context.Context, accessToken string) (*LongLivedToken, error) {
	var token LongLivedToken
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type":   "ig_refresh_token",
			"access_token": accessToken,
		}).
		SetResult(&token).
		Get(GraphBaseURL + "/refresh_access_token")

	if err != nil {
		return nil, fmt.Errorf("token 续期失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("token 续期异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return &token, nil
}

// GetProfile 获取当前 token 对应的账号信息
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fields":       "id,username,account_type",
			"access_token": accessToken,
		}).
		SetResult(&profile).
		Get(GraphBaseURL + "/me")

	if err != nil {
		return nil, fmt.Errorf("获取账号信息失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("获取账号信息异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return &profile, nil
}

// ==================== 媒体分页拉取 ====================

// FetchAllMedia 沿 paging.next 拉全量媒体
// 任何一页失败整次失败，调用方不得把半截结果当全量落库；
// 空账号返回空切片
func (c *Client) FetchAllMedia(ctx context.Context, accessToken string) ([]Media, error) {
	first := fmt.Sprintf("%s/me/media?fields=%s&access_token=%s",
		GraphBaseURL, mediaFields, url.QueryEscape(accessToken))

	return c.fetchAllFrom(ctx, first)
}

// fetchAllFrom 从指定 URL 开始翻页 (测试时可直接注入起始页)
func (c *Client) fetchAllFrom(ctx context.Context, pageURL string) ([]Media, error) {
	var all []Media

	for page := 0; pageURL != ""; page++ {
		if page >= c.maxPages {
			return nil, ErrTooManyPages
		}

		var res mediaListResp
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&res).
			Get(pageURL)

		if err != nil {
			return nil, fmt.Errorf("拉取第 %d 页失败: %w", page+1, err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("拉取第 %d 页异常 [%d]: %s", page+1, resp.StatusCode(), resp.String())
		}
		if res.Error != nil {
			return nil, fmt.Errorf("graph api 错误 (code=%d): %s", res.Error.Code, res.Error.Message)
		}

		all = append(all, res.Data...)
		pageURL = res.Paging.Next
	}

	return all, nil
}
