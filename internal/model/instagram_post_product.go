package model

import (
	"time"
)

// InstagramPostProduct 帖子与店铺商品的关联
// 商品字段是关联时刻的反范式快照，店铺侧改价改名不回写
// (postId, productId) 的唯一性由 service 层插入前检查保证，不建存储约束，
// 与原始数据口径保持一致
type InstagramPostProduct struct {
	ID     int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	PostID string `gorm:"index;size:64;not null" json:"postId"`

	ProductID     string  `gorm:"index;size:128;not null" json:"productId"` // Shopify GID
	ProductTitle  string  `gorm:"size:255" json:"productTitle"`
	ProductHandle string  `gorm:"size:255" json:"productHandle"`
	ProductImage  *string `gorm:"size:2048" json:"productImage"`
	ProductPrice  *string `gorm:"size:32" json:"productPrice"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (InstagramPostProduct) TableName() string {
	return "instagram_post_products"
}
