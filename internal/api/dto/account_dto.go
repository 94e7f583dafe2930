package dto

import "instafeed_dev_v1_202608/internal/model"

// Response DTO (返回给前端的数据)

// AccountResp 账号列表/详情返回结构
// token 不下发，只给到期时间方便前端提示重连
type AccountResp struct {
	ID                int64  `json:"id"`
	InstagramID       string `json:"instagram_id"`
	InstagramUsername string `json:"instagram_username"`
	AccountType       string `json:"account_type"`
	TokenExpires      int64  `json:"token_expires"` // 时间戳，前端格式化
	PostCount         int    `json:"post_count"`
	CreatedAt         int64  `json:"created_at"`
}

// DeletionPreviewResp 删除前的影响范围预览
// 前端确认弹窗用：告诉用户这一删会带走多少东西
type DeletionPreviewResp struct {
	AccountID          int64  `json:"account_id"`
	InstagramUsername  string `json:"instagram_username"`
	PostsCount         int64  `json:"posts_count"`
	SelectedPostsCount int64  `json:"selected_posts_count"`
	ProductLinksCount  int64  `json:"product_links_count"`
}

// ToAccountResp model -> resp
func ToAccountResp(m *model.InstagramAccount) AccountResp {
	return AccountResp{
		ID:                m.ID,
		InstagramID:       m.InstagramID,
		InstagramUsername: m.InstagramUsername,
		AccountType:       m.AccountType,
		TokenExpires:      m.InstagramTokenExpires.Unix(),
		PostCount:         len(m.Posts),
		CreatedAt:         m.CreatedAt.Unix(),
	}
}
