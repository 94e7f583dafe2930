package model

import (
	"time"
)

// BaseModel 公共字段
// 注意：本项目不使用软删除。合规 webhook (shop/redact 等) 要求数据被物理删除，
// deleted_at 残留行会违反删除承诺。
type BaseModel struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
