package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"instafeed_dev_v1_202608/internal/api/dto"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/internal/service"
)

type AccountController struct {
	accountService *service.AccountService
}

func NewAccountController(accountService *service.AccountService) *AccountController {
	return &AccountController{accountService: accountService}
}

// ListAccounts 获取已连接的 Instagram 账号列表
// @Summary 获取账号列表
// @Tags Account
// @Success 200 {object} map[string]interface{}
// @Router /api/accounts [get]
func (ctrl *AccountController) ListAccounts(c *gin.Context) {
	ctx := c.Request.Context()
	accounts, err := ctrl.accountService.ListAccounts(ctx)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	respList := make([]dto.AccountResp, 0, len(accounts))
	for i := range accounts {
		respList = append(respList, dto.ToAccountResp(&accounts[i]))
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    respList,
	})
}

// GetDeletionPreview 删除前预览影响范围
// @Summary 预览删除账号会带走的数据量
// @Tags Account
// @Param id path int true "账号ID"
// @Success 200 {object} dto.DeletionPreviewResp
// @Router /api/accounts/{id}/deletion-preview [get]
func (ctrl *AccountController) GetDeletionPreview(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的账号ID"})
		return
	}

	ctx := c.Request.Context()
	preview, err := ctrl.accountService.GetDeletionPreview(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "账号不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    preview,
	})
}

// DeleteAccount 断开并删除账号 (级联删帖子和商品关联)
// @Summary 删除账号
// @Tags Account
// @Param id path int true "账号ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/accounts/{id} [delete]
func (ctrl *AccountController) DeleteAccount(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的账号ID"})
		return
	}

	ctx := c.Request.Context()
	if err := ctrl.accountService.DeleteAccount(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "账号不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "删除失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "删除成功"})
}
