package dto

import "instafeed_dev_v1_202608/internal/model"

// Request DTO (前端传进来的数据)

// SetSelectedReq 切换帖子展示状态
// Selected 用指针区分 "传了 false" 和 "没传"
type SetSelectedReq struct {
	PostID   string `json:"post_id" binding:"required"`
	Selected *bool  `json:"selected" binding:"required"`
}

// Response DTO (返回给前端的数据)

// PostResp 帖子返回结构
type PostResp struct {
	ID           string            `json:"id"`
	MediaType    string            `json:"media_type"`
	MediaURL     string            `json:"media_url"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	Permalink    string            `json:"permalink"`
	Timestamp    int64             `json:"timestamp"` // 发帖时间戳
	Username     string            `json:"username"`
	Caption      string            `json:"caption,omitempty"`
	Selected     bool              `json:"selected"`
	AccountID    int64             `json:"account_id"`
	Products     []ProductLinkResp `json:"products,omitempty"`
}

// PostListResp 帖子列表返回
// Captions 是去重后的正文列表，前端筛选下拉框用
type PostListResp struct {
	Code     int        `json:"code"`
	Message  string     `json:"message"`
	Data     []PostResp `json:"data"`
	Total    int        `json:"total"`
	Captions []string   `json:"captions,omitempty"`
}

// ToPostResp model -> resp
func ToPostResp(m *model.InstagramPost) PostResp {
	resp := PostResp{
		ID:        m.ID,
		MediaType: m.MediaType,
		MediaURL:  m.MediaURL,
		Permalink: m.Permalink,
		Timestamp: m.Timestamp.Unix(),
		Username:  m.Username,
		Selected:  m.Selected,
		AccountID: m.AccountID,
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

// ToPostRespList 批量转换
func ToPostRespList(posts []model.InstagramPost) []PostResp {
	out := make([]PostResp, 0, len(posts))
	for i := range posts {
		out = append(out, ToPostResp(&posts[i]))
	}
	return out
}

// CaptionList 提取去重后的非空正文，保持原顺序
func CaptionList(posts []PostResp) []string {
	seen := make(map[string]struct{}, len(posts))
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.Caption == "" {
			continue
		}
		if _, ok := seen[p.Caption]; ok {
			continue
		}
		seen[p.Caption] = struct{}{}
		out = append(out, p.Caption)
	}
	return out
}
