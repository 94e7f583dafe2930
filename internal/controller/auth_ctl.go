package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"instafeed_dev_v1_202608/internal/api/dto"
	"instafeed_dev_v1_202608/internal/service"
	"instafeed_dev_v1_202608/pkg/shopify"
)

type AuthController struct {
	authService *service.AuthService
	apiSecret   string
	appURL      string
}

func NewAuthController(authService *service.AuthService, apiSecret, appURL string) *AuthController {
	return &AuthController{
		authService: authService,
		apiSecret:   apiSecret,
		appURL:      appURL,
	}
}

// ==================== Instagram 授权 ====================

// InstagramLogin 发起 Instagram 授权
// @Summary 生成 Instagram 授权链接并重定向
// @Tags Auth
// @Param shop query string true "店铺域名"
// @Success 302
// @Router /api/auth/instagram [get]
func (ctrl *AuthController) InstagramLogin(c *gin.Context) {
	shop := c.Query("shop")

	loginURL, err := ctrl.authService.GenerateInstagramLoginURL(shop)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "生成授权链接失败: " + err.Error()})
		return
	}

	c.Redirect(http.StatusFound, loginURL)
}

// InstagramCallback 处理 Instagram 授权回调
// @Summary Instagram OAuth 回调
// @Tags Auth
// @Param code query string true "授权码"
// @Param state query string true "state"
// @Success 200 {object} dto.AccountResp
// @Router /api/auth/instagram/callback [get]
func (ctrl *AuthController) InstagramCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(400, gin.H{"code": 400, "message": "缺少 code 或 state"})
		return
	}

	ctx := c.Request.Context()
	account, err := ctrl.authService.HandleInstagramCallback(ctx, code, state)
	if err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			c.JSON(400, gin.H{"code": 400, "message": err.Error()})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "授权失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.ToAccountResp(account),
	})
}

// ==================== Shopify 安装 ====================

// ShopifyInstall 发起应用安装
// @Summary 生成 Shopify 安装授权链接并重定向
// @Tags Auth
// @Param shop query string true "店铺域名"
// @Success 302
// @Router /api/auth/shopify [get]
func (ctrl *AuthController) ShopifyInstall(c *gin.Context) {
	shop := c.Query("shop")
	if shop == "" {
		c.JSON(400, gin.H{"code": 400, "message": "缺少 shop"})
		return
	}

	installURL, err := ctrl.authService.GenerateInstallURL(shop)
	if err != nil {
		c.JSON(400, gin.H{"code": 400, "message": err.Error()})
		return
	}

	c.Redirect(http.StatusFound, installURL)
}

// ShopifyCallback 处理安装回调
// @Summary Shopify OAuth 回调，换离线 token
// @Tags Auth
// @Param shop query string true "店铺域名"
// @Param code query string true "授权码"
// @Param state query string true "state"
// @Param hmac query string true "签名"
// @Success 302
// @Router /api/auth/shopify/callback [get]
func (ctrl *AuthController) ShopifyCallback(c *gin.Context) {
	// 安装回调带 hmac 参数，先验签再进业务
	if !shopify.VerifyOAuthHMAC(c.Request.URL.Query(), ctrl.apiSecret) {
		c.JSON(401, gin.H{"code": 401, "message": "签名校验失败"})
		return
	}

	shop := c.Query("shop")
	code := c.Query("code")
	state := c.Query("state")
	if shop == "" || code == "" || state == "" {
		c.JSON(400, gin.H{"code": 400, "message": "缺少必要参数"})
		return
	}

	ctx := c.Request.Context()
	if _, err := ctrl.authService.HandleInstallCallback(ctx, shop, code, state); err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			c.JSON(400, gin.H{"code": 400, "message": err.Error()})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "安装失败: " + err.Error()})
		return
	}

	// 装完回嵌入式应用首页
	c.Redirect(http.StatusFound, ctrl.appURL+"/?shop="+shop)
}
