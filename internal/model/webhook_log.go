package model

import (
	"time"

	"gorm.io/datatypes"
)

// Webhook 主题常量 (Shopify 合规 webhook，固定三个)
const (
	TopicCustomersDataRequest = "customers/data_request"
	TopicCustomersRedact      = "customers/redact"
	TopicShopRedact           = "shop/redact"
)

// WebhookLog 合规 webhook 审计表
// 每次收到已验签的合规 webhook 都落一条，包含原始 payload 快照与处理结果，
// 供合规复查（平台可能重放，同一事件允许多条记录）
type WebhookLog struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"` // uuid
	Topic      string         `gorm:"index;size:40;not null" json:"topic"`
	ShopDomain string         `gorm:"index;size:100" json:"shopDomain"`
	Payload    datatypes.JSON `json:"payload"`
	Summary    datatypes.JSON `json:"summary"`
	Success    bool           `json:"success"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// TableName 指定表名
func (WebhookLog) TableName() string {
	return "webhook_logs"
}
