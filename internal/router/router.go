package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"instafeed_dev_v1_202608/internal/controller"
	"instafeed_dev_v1_202608/internal/middleware"

	_ "instafeed_dev_v1_202608/docs"
)

// InitRoutes 注册所有路由
//
// 三个入口三套鉴权：
//   - /api/*      管理端，App Bridge session token
//   - /proxy/*    店面代理，query signature 验签 (controller 内完成)
//   - /webhooks/* 平台回调，raw body HMAC 验签 (controller 内完成)
func InitRoutes(r *gin.Engine,
	authCtl *controller.AuthController,
	accountCtl *controller.AccountController,
	postCtl *controller.PostController,
	productCtl *controller.ProductController,
	planCtl *controller.PlanController,
	proxyCtl *controller.ProxyController,
	webhookCtl *controller.WebhookController) {
	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 2. 店面代理路由组
	// 主题脚本跨域拉数据，放开 CORS
	proxy := r.Group("/proxy")
	proxy.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
	}))
	{
		// GET /proxy/feed
		proxy.GET("/feed", proxyCtl.GetFeed)
	}

	// 3. 平台 webhook 路由组
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/customers/data_request", webhookCtl.CustomersDataRequest)
		webhooks.POST("/customers/redact", webhookCtl.CustomersRedact)
		webhooks.POST("/shop/redact", webhookCtl.ShopRedact)
	}

	// 4. API 路由组
	api := r.Group("/api")
	{
		// auth 鉴权组 (OAuth 回调，无法携带 session token)
		auth := api.Group("/auth")
		{
			// GET /api/auth/instagram
			auth.GET("/instagram", authCtl.InstagramLogin)
			auth.GET("/instagram/callback", authCtl.InstagramCallback)

			// GET /api/auth/shopify
			auth.GET("/shopify", authCtl.ShopifyInstall)
			auth.GET("/shopify/callback", authCtl.ShopifyCallback)
		}

		// 管理端接口，session token 保护
		admin := api.Group("")
		admin.Use(middleware.SessionAuth())
		{
			// account 账号管理
			accounts := admin.Group("/accounts")
			{
				accounts.GET("", accountCtl.ListAccounts)
				accounts.GET("/:id/deletion-preview", accountCtl.GetDeletionPreview)
				accounts.DELETE("/:id", accountCtl.DeleteAccount)
			}

			// post 帖子管理
			posts := admin.Group("/posts")
			{
				posts.GET("", postCtl.GetPosts)
				// 手动刷新带账号级冷却
				posts.POST("/refresh", middleware.RefreshRateLimit(0), postCtl.RefreshPosts)
				posts.POST("/selected", postCtl.SetSelected)
			}

			// product 商品关联
			products := admin.Group("/products")
			{
				// POST /api/products (action: add/remove/get/getCounts)
				products.POST("", productCtl.HandleAction)
				products.GET("/search", productCtl.SearchProducts)
			}

			// plan 订阅管理
			plan := admin.Group("/plan")
			{
				plan.GET("", planCtl.GetPlan)
				plan.POST("/subscribe", planCtl.Subscribe)
				plan.POST("/cancel", planCtl.Cancel)
			}
		}
	}
}
