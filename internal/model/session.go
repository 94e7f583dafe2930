package model

import (
	"time"
)

// Session 店铺安装会话 (离线 token)
// 应用安装 OAuth 完成时写入，订阅查询 / 商品搜索走这里取 token
// 卸载 (shop/redact) 时随店铺数据一并删除
type Session struct {
	BaseModel

	Shop        string     `gorm:"uniqueIndex;size:100;not null" json:"shop"` // your-store.myshopify.com
	AccessToken string     `gorm:"size:255" json:"-"`
	Scope       string     `gorm:"size:512" json:"scope"`
	InstalledAt *time.Time `json:"installedAt"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}
