package dto

import "instafeed_dev_v1_202608/internal/model"

// Request DTO (前端传进来的数据)

// ProductActionReq 商品关联的统一入口请求
// 前端用一个 action 字段路由四种操作，保持和旧接口兼容
type ProductActionReq struct {
	Action    string          `json:"action" binding:"required,oneof=add remove get getCounts"`
	PostID    string          `json:"post_id"`
	ProductID string          `json:"product_id"` // remove 用
	AccountID int64           `json:"account_id"` // getCounts 用
	Product   *ProductPayload `json:"product"`    // add 用
}

// ProductPayload add 操作携带的商品快照
type ProductPayload struct {
	ID     string  `json:"id" binding:"required"`
	Title  string  `json:"title" binding:"required"`
	Handle string  `json:"handle" binding:"required"`
	Image  *string `json:"image"`
	Price  *string `json:"price"`
}

// Response DTO (返回给前端的数据)

// ProductActionResp 统一入口的返回结构
// 业务性失败 (如重复关联) 走 Success=false + Error，HTTP 仍是 200
type ProductActionResp struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ProductLinkResp 帖子下挂的商品条目
type ProductLinkResp struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
	Image  string `json:"image,omitempty"`
	Price  string `json:"price,omitempty"`
}

// ToProductLinkResp model -> resp
func ToProductLinkResp(m *model.InstagramPostProduct) ProductLinkResp {
	resp := ProductLinkResp{
		ID:     m.ProductID,
		Title:  m.ProductTitle,
		Handle: m.ProductHandle,
	}
	if m.ProductImage != nil {
		resp.Image = *m.ProductImage
	}
	if m.ProductPrice != nil {
		resp.Price = *m.ProductPrice
	}
	return resp
}
