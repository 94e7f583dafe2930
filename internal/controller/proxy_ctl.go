package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"instafeed_dev_v1_202608/internal/api/dto"
	"instafeed_dev_v1_202608/internal/service"
	"instafeed_dev_v1_202608/pkg/shopify"
)

// ProxyController 店面代理接口
// 请求由 Shopify App Proxy 转发而来，验签走 query signature，不走 session token
type ProxyController struct {
	postService         *service.PostService
	subscriptionService *service.SubscriptionService
	apiSecret           string
}

func NewProxyController(postService *service.PostService, subscriptionService *service.SubscriptionService, apiSecret string) *ProxyController {
	return &ProxyController{
		postService:         postService,
		subscriptionService: subscriptionService,
		apiSecret:           apiSecret,
	}
}

// GetFeed 店面瀑布流数据
// @Summary 返回店面展示的已选帖子及关联商品
// @Tags Proxy
// @Param signature query string true "App Proxy 签名"
// @Param shop query string true "店铺域名"
// @Param dataset query string true "数据集标识"
// @Success 200 {object} dto.ProxyFeedResp
// @Router /proxy/feed [get]
func (ctrl *ProxyController) GetFeed(c *gin.Context) {
	// App Proxy 签名校验，失败一律 401，不泄露细节
	if !shopify.VerifyProxySignature(c.Request.URL.String(), ctrl.apiSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	// dataset 只要求参数出现，值可以为空
	if !c.Request.URL.Query().Has("dataset") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	// 店面响应允许任意来源读取，且不缓存（选中状态随时会变）
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Cache-Control", "no-cache")

	ctx := c.Request.Context()
	shop := c.Query("shop")

	state, err := ctrl.subscriptionService.GetState(ctx, shop)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// 订阅失效：返回空列表 + isSubscribe=false，主题隐藏区块
	if !state.Active {
		c.JSON(http.StatusOK, dto.ProxyFeedResp{
			Posts:       []dto.ProxyPostResp{},
			IsSubscribe: false,
		})
		return
	}

	posts, err := ctrl.postService.SelectedFeed(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	respPosts := make([]dto.ProxyPostResp, 0, len(posts))
	for i := range posts {
		respPosts = append(respPosts, dto.ToProxyPostResp(&posts[i]))
	}

	c.JSON(http.StatusOK, dto.ProxyFeedResp{
		Posts:       respPosts,
		IsSubscribe: true,
	})
}
