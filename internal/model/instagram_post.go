package model

import (
	"time"
)

// 媒体类型常量
const (
	MediaTypeImage = "IMAGE"
	MediaTypeVideo = "VIDEO"
)

// InstagramPost 本地缓存的 Instagram 帖子
// 主键直接使用 Instagram 平台的 media id（字符串），不另设内部自增 ID
type InstagramPost struct {
	// 外部 media id 作为主键，同步时天然去重
	ID string `gorm:"primaryKey;size:64" json:"id"`

	MediaType    string    `gorm:"index;size:20" json:"mediaType"` // IMAGE / VIDEO
	MediaURL     string    `gorm:"size:2048" json:"mediaUrl"`
	ThumbnailURL *string   `gorm:"size:2048" json:"thumbnailUrl"` // 仅 VIDEO 有缩略图
	Permalink    string    `gorm:"size:512" json:"permalink"`
	Timestamp    time.Time `gorm:"index" json:"timestamp"` // 帖子在 Instagram 的发布时间
	Username     string    `gorm:"index;size:100" json:"username"`
	Caption      *string   `gorm:"type:text" json:"caption"`

	// Selected 商家勾选后才会出现在店面 feed 里
	// 增量同步绝不覆盖该字段
	Selected bool `gorm:"default:false;index" json:"selected"`

	// 归属账号
	AccountID int64             `gorm:"index;not null" json:"accountId"`
	Account   *InstagramAccount `gorm:"foreignKey:AccountID" json:"account,omitempty"`

	// 本地记账时间
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// 关联的商品快照
	Products []InstagramPostProduct `gorm:"foreignKey:PostID" json:"products,omitempty"`
}

// TableName 指定表名
func (InstagramPost) TableName() string {
	return "instagram_posts"
}
