package dto

// Request DTO (前端传进来的数据)

// SubscribeReq 发起订阅
type SubscribeReq struct {
	ReturnURL string `json:"return_url" binding:"required"`
	Test      bool   `json:"test"`
}

// CancelSubscriptionReq 取消订阅
type CancelSubscriptionReq struct {
	SubscriptionID string `json:"subscription_id" binding:"required"`
}

// Response DTO (返回给前端的数据)

// PlanResp 订阅状态返回
type PlanResp struct {
	Active              bool   `json:"active"`
	TrialActive         bool   `json:"trial_active"`
	TrialEndDate        string `json:"trial_end_date,omitempty"`        // ISO8601
	SubscriptionEndDate string `json:"subscription_end_date,omitempty"` // ISO8601
	BypassEnabled       bool   `json:"bypass_enabled"`
	PlanName            string `json:"plan_name,omitempty"`
	Status              string `json:"status,omitempty"`
}

// SubscribeResp 订阅创建返回，前端跳 confirmation_url 完成付款
type SubscribeResp struct {
	SubscriptionID  string `json:"subscription_id"`
	ConfirmationURL string `json:"confirmation_url"`
}
