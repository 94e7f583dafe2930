package controller

import (
	"time"

	"github.com/gin-gonic/gin"

	"instafeed_dev_v1_202608/internal/api/dto"
	"instafeed_dev_v1_202608/internal/middleware"
	"instafeed_dev_v1_202608/internal/service"
)

type PlanController struct {
	subscriptionService *service.SubscriptionService
}

func NewPlanController(subscriptionService *service.SubscriptionService) *PlanController {
	return &PlanController{subscriptionService: subscriptionService}
}

// GetPlan 获取当前订阅状态
// @Summary 获取店铺订阅状态 (含试用窗口)
// @Tags Plan
// @Success 200 {object} dto.PlanResp
// @Router /api/plan [get]
func (ctrl *PlanController) GetPlan(c *gin.Context) {
	shop := middleware.GetShop(c)
	if shop == "" {
		c.JSON(401, gin.H{"code": 401, "message": "未获取到店铺信息"})
		return
	}

	ctx := c.Request.Context()
	state, err := ctrl.subscriptionService.GetState(ctx, shop)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	resp := dto.PlanResp{
		Active:        state.Active,
		TrialActive:   state.TrialActive,
		BypassEnabled: state.BypassEnabled,
	}
	if state.TrialEndDate != nil {
		resp.TrialEndDate = state.TrialEndDate.UTC().Format(time.RFC3339)
	}
	if state.SubscriptionEndDate != nil {
		resp.SubscriptionEndDate = state.SubscriptionEndDate.UTC().Format(time.RFC3339)
	}
	if state.Subscription != nil {
		resp.PlanName = state.Subscription.Name
		resp.Status = state.Subscription.Status
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    resp,
	})
}

// Subscribe 创建订阅
// @Summary 创建订阅并返回确认跳转链接
// @Tags Plan
// @Accept json
// @Produce json
// @Param body body dto.SubscribeReq true "订阅参数"
// @Success 200 {object} dto.SubscribeResp
// @Router /api/plan/subscribe [post]
func (ctrl *PlanController) Subscribe(c *gin.Context) {
	shop := middleware.GetShop(c)
	if shop == "" {
		c.JSON(401, gin.H{"code": 401, "message": "未获取到店铺信息"})
		return
	}

	var req dto.SubscribeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	result, err := ctrl.subscriptionService.Subscribe(ctx, shop, req.ReturnURL, req.Test)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "创建订阅失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data": dto.SubscribeResp{
			SubscriptionID:  result.SubscriptionID,
			ConfirmationURL: result.ConfirmationURL,
		},
	})
}

// Cancel 取消订阅
// @Summary 取消当前订阅
// @Tags Plan
// @Accept json
// @Produce json
// @Param body body dto.CancelSubscriptionReq true "取消参数"
// @Success 200 {object} map[string]interface{}
// @Router /api/plan/cancel [post]
func (ctrl *PlanController) Cancel(c *gin.Context) {
	shop := middleware.GetShop(c)
	if shop == "" {
		c.JSON(401, gin.H{"code": 401, "message": "未获取到店铺信息"})
		return
	}

	var req dto.CancelSubscriptionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := ctrl.subscriptionService.Cancel(ctx, shop, req.SubscriptionID); err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "取消失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "订阅已取消"})
}
