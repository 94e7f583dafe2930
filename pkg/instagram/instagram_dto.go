package instagram

import (
	"time"
)

// ==================== Graph API DTO ====================

// Media 单条媒体记录 (原样承接 API 字段，入库转换放在 service 层)
type Media struct {
	ID           string  `json:"id"`
	Caption      *string `json:"caption"`
	MediaType    string  `json:"media_type"` // IMAGE / VIDEO / CAROUSEL_ALBUM
	MediaURL     string  `json:"media_url"`
	Permalink    string  `json:"permalink"`
	ThumbnailURL *string `json:"thumbnail_url"` // 仅视频返回
	Timestamp    string  `json:"timestamp"`     // 形如 2024-01-15T10:00:00+0000
	Username     string  `json:"username"`
}

// mediaTimeLayout Instagram 的时间戳不是标准 RFC3339 (时区无冒号)
const mediaTimeLayout = "2006-01-02T15:04:05-0700"

// ParseTimestamp 解析媒体时间戳
func (m Media) ParseTimestamp() (time.Time, error) {
	return time.Parse(mediaTimeLayout, m.Timestamp)
}

// mediaListResp 分页响应
type mediaListResp struct {
	Data   []Media `json:"data"`
	Paging struct {
		Next string `json:"next"` // 为空表示最后一页
	} `json:"paging"`
	Error *apiError `json:"error"`
}

// apiError Graph API 错误体
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// ==================== Token DTO ====================

// ShortLivedToken 授权码换取的短效 token (1 小时)
type ShortLivedToken struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
}

// LongLivedToken 长效 token (60 天)，ExpiresIn 单位秒
type LongLivedToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Profile /me 返回的账号信息
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccountType string `json:"account_type"` // BUSINESS / MEDIA_CREATOR / PERSONAL
}
