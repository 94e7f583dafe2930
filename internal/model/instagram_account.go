package model

import (
	"time"
)

// 账号类型常量 (Instagram Graph API 返回值)
const (
	AccountTypeBusiness = "BUSINESS"
	AccountTypePersonal = "PERSONAL"
	AccountTypeCreator  = "MEDIA_CREATOR"
)

// InstagramAccount 已连接的 Instagram 商家账号
// 授权回调时 upsert（以 instagram_id 为准），商家删除或合规 webhook 时级联删除
type InstagramAccount struct {
	BaseModel

	// 1. 核心身份
	// InstagramID 是 Instagram 平台侧的用户 ID，全局唯一，是唯一的建号入口
	InstagramID       string `gorm:"uniqueIndex;size:64;not null" json:"instagramId"`
	InstagramUsername string `gorm:"index;size:100" json:"instagramUsername"`

	// 2. 长效 Token
	// Instagram long-lived token 有效期 60 天，由定时任务周期续期
	InstagramToken        string    `gorm:"size:512" json:"-"`
	InstagramTokenExpires time.Time `json:"instagramTokenExpires"`

	// 3. 账号类型 BUSINESS / PERSONAL / MEDIA_CREATOR
	AccountType string `gorm:"size:20" json:"accountType"`

	// 关联关系：一个账号下多条缓存的帖子
	Posts []InstagramPost `gorm:"foreignKey:AccountID" json:"posts,omitempty"`
}

// TableName 指定表名
func (InstagramAccount) TableName() string {
	return "instagram_accounts"
}
