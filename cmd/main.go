package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"instafeed_dev_v1_202608/internal/controller"
	"instafeed_dev_v1_202608/internal/middleware"
	"instafeed_dev_v1_202608/internal/model"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/internal/router"
	"instafeed_dev_v1_202608/internal/service"
	"instafeed_dev_v1_202608/internal/task"
	"instafeed_dev_v1_202608/pkg/database"
	"instafeed_dev_v1_202608/pkg/instagram"
	"instafeed_dev_v1_202608/pkg/shopify"
)

// @title InstaFeed API
// @version 1.0
// @description Instagram 店面瀑布流应用后端接口
func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	initTasks(deps)

	// 4. 初始化路由
	r := gin.Default()
	router.InitRoutes(r,
		deps.Controllers.Auth,
		deps.Controllers.Account,
		deps.Controllers.Post,
		deps.Controllers.Product,
		deps.Controllers.Plan,
		deps.Controllers.Proxy,
		deps.Controllers.Webhook,
	)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *Controllers
	Instagram   *instagram.Client
}

// Repositories 仓库集合
type Repositories struct {
	Account     repository.AccountRepository
	Post        repository.PostRepository
	PostProduct repository.PostProductRepository
	WebhookLog  repository.WebhookLogRepository
	Session     repository.SessionRepository
}

// Services 服务集合
type Services struct {
	Auth         *service.AuthService
	Account      *service.AccountService
	Post         *service.PostService
	ProductLink  *service.ProductLinkService
	Subscription *service.SubscriptionService
	Webhook      *service.WebhookService
}

// Controllers 控制器集合
type Controllers struct {
	Auth    *controller.AuthController
	Account *controller.AccountController
	Post    *controller.PostController
	Product *controller.ProductController
	Plan    *controller.PlanController
	Proxy   *controller.ProxyController
	Webhook *controller.WebhookController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN", fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "instafeed"),
		getEnv("DB_PASSWORD", ""),
		getEnv("DB_NAME", "instafeed"),
		getEnv("DB_PORT", "5432"),
	))

	return database.InitDB(dsn,
		// Account
		&model.InstagramAccount{}, &model.InstagramPost{}, &model.InstagramPostProduct{},
		// Platform
		&model.Session{}, &model.WebhookLog{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Account:     repository.NewAccountRepository(db),
		Post:        repository.NewPostRepository(db),
		PostProduct: repository.NewPostProductRepository(db),
		WebhookLog:  repository.NewWebhookLogRepository(db),
		Session:     repository.NewSessionRepository(db),
	}

	// -------- 外部客户端 --------
	apiKey := getEnv("SHOPIFY_API_KEY", "")
	apiSecret := getEnv("SHOPIFY_API_SECRET", "")
	appURL := getEnv("APP_URL", "http://localhost:8080")

	igClient := instagram.NewClient(&instagram.Config{
		AppID:       getEnv("INSTAGRAM_APP_ID", ""),
		AppSecret:   getEnv("INSTAGRAM_APP_SECRET", ""),
		RedirectURI: appURL + "/api/auth/instagram/callback",
	})

	shopifyClient := shopify.NewClient(
		getEnv("SHOPIFY_API_VERSION", shopify.DefaultAPIVersion),
		15*time.Second,
	)

	// session token 验签配置
	middleware.SetSessionAuthConfig(&middleware.SessionAuthConfig{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	// -------- 业务服务 --------
	services := &Services{}
	services.Auth = service.NewAuthService(igClient, repos.Account, repos.Session, shopifyClient, &service.AuthConfig{
		ShopifyAPIKey:    apiKey,
		ShopifyAPISecret: apiSecret,
		ShopifyScopes:    getEnv("SHOPIFY_SCOPES", "read_products"),
		AppURL:           appURL,
	})
	services.Post = service.NewPostService(repos.Post, repos.Account, igClient)
	services.Account = service.NewAccountService(repos.Account, services.Post)
	services.ProductLink = service.NewProductLinkService(repos.PostProduct, repos.Post, repos.Session, shopifyClient)
	services.Subscription = service.NewSubscriptionService(
		shopifyClient, repos.Session,
		getEnv("BILLING_BYPASS", "") == "true",
	)
	services.Webhook = service.NewWebhookService(repos.Account, repos.Session, repos.WebhookLog)

	// -------- Controller 层 --------
	controllers := &Controllers{
		Auth:    controller.NewAuthController(services.Auth, apiSecret, appURL),
		Account: controller.NewAccountController(services.Account),
		Post:    controller.NewPostController(services.Post),
		Product: controller.NewProductController(services.ProductLink),
		Plan:    controller.NewPlanController(services.Subscription),
		Proxy:   controller.NewProxyController(services.Post, services.Subscription, apiSecret),
		Webhook: controller.NewWebhookController(services.Webhook, apiSecret),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		Instagram:   igClient,
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	// Instagram 长效 Token 保活
	tokenTask := task.NewTokenTask(deps.Repos.Account, deps.Instagram)
	tokenTask.Start()

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
