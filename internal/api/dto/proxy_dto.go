package dto

import "instafeed_dev_v1_202608/internal/model"

// Response DTO (店面代理接口返回，字段名和前端主题脚本约定一致)

// ProxyFeedResp 店面瀑布流返回
// 订阅过期时 posts 为空且 isSubscribe=false，主题据此隐藏整个区块
type ProxyFeedResp struct {
	Posts       []ProxyPostResp `json:"posts"`
	IsSubscribe bool            `json:"isSubscribe"`
}

// ProxyPostResp 店面侧的帖子结构 (驼峰，直接喂给主题脚本)
type ProxyPostResp struct {
	ID           string            `json:"id"`
	MediaType    string            `json:"mediaType"`
	MediaURL     string            `json:"mediaUrl"`
	ThumbnailURL string            `json:"thumbnailUrl,omitempty"`
	Permalink    string            `json:"permalink"`
	Timestamp    string            `json:"timestamp"` // ISO8601 字符串
	Username     string            `json:"username"`
	Caption      string            `json:"caption,omitempty"`
	Products     []ProductLinkResp `json:"products"`
}

// ToProxyPostResp model -> 店面结构
func ToProxyPostResp(m *model.InstagramPost) ProxyPostResp {
	resp := ProxyPostResp{
		ID:        m.ID,
		MediaType: m.MediaType,
		MediaURL:  m.MediaURL,
		Permalink: m.Permalink,
		Timestamp: m.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Username:  m.Username,
		Products:  make([]ProductLinkResp, 0, len(m.Products)),
	}
	if m.ThumbnailURL != nil {
		resp.ThumbnailURL = *m.ThumbnailURL
	}
	if m.Caption != nil {
		resp.Caption = *m.Caption
	}
	for i := range m.Products {
		resp.Products = append(resp.Products, ToProductLinkResp(&m.Products[i]))
	}
	return resp
}
