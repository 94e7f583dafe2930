package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"instafeed_dev_v1_202608/internal/model"
	"instafeed_dev_v1_202608/internal/repository"
)

// ErrInvalidPayload payload 缺少必要标识 (客户/店铺)，按 400 处理
var ErrInvalidPayload = errors.New("invalid webhook payload")

// ==================== Payload ====================

// CompliancePayload 合规 webhook 的公共 payload 字段
// 三个主题的字段是超集关系，这里合并定义
type CompliancePayload struct {
	ShopID     int64  `json:"shop_id"`
	ShopDomain string `json:"shop_domain"`
	ShopOwner  string `json:"shop_owner"`

	Customer *struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customer"`
}

func (p *CompliancePayload) customerID() int64 {
	if p.Customer == nil {
		return 0
	}
	return p.Customer.ID
}

func (p *CompliancePayload) customerEmail() string {
	if p.Customer == nil {
		return ""
	}
	return p.Customer.Email
}

// ==================== 处理结果 ====================

// AccountSummary 数据报告里的账号条目（不含 token 等敏感字段）
type AccountSummary struct {
	AccountID         int64     `json:"accountId"`
	InstagramUsername string    `json:"instagramUsername"`
	AccountType       string    `json:"accountType"`
	ConnectedAt       time.Time `json:"connectedAt"`
	LastUpdated       time.Time `json:"lastUpdated"`
	TotalPosts        int       `json:"totalPosts"`
}

// DataRequestReport customers/data_request 的数据报告
type DataRequestReport struct {
	CustomerID    int64            `json:"customerId,omitempty"`
	CustomerEmail string           `json:"customerEmail,omitempty"`
	ShopDomain    string           `json:"shopDomain,omitempty"`
	RequestDate   time.Time        `json:"requestDate"`
	Note          string           `json:"note"`
	TotalAccounts int              `json:"totalAccounts"`
	Accounts      []AccountSummary `json:"accounts"`
}

// DeletionError 单个账号删除失败的条目
type DeletionError struct {
	AccountID int64  `json:"accountId"`
	Username  string `json:"username"`
	Error     string `json:"error"`
}

// RedactSummary 删除类 webhook 的处理摘要
// 批处理是尽力而为：单个账号失败不终止整批，失败条目收进 Errors
type RedactSummary struct {
	ShopID              int64           `json:"shopId,omitempty"`
	ShopDomain          string          `json:"shopDomain,omitempty"`
	CustomerID          int64           `json:"customerId,omitempty"`
	Timestamp           time.Time       `json:"timestamp"`
	AccountsDeleted     int             `json:"accountsDeleted"`
	PostsDeleted        int64           `json:"postsDeleted"`
	ProductLinksDeleted int64           `json:"productLinksDeleted"`
	Errors              []DeletionError `json:"errors"`
	Note                string          `json:"note,omitempty"`
}

// ==================== Webhook 服务 ====================

// WebhookService 三个合规 webhook 的业务处理
// 验签在 controller 层完成，进到这里的 payload 一律视为可信
type WebhookService struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	logs     repository.WebhookLogRepository
}

// NewWebhookService 工厂方法
func NewWebhookService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	logs repository.WebhookLogRepository,
) *WebhookService {
	return &WebhookService{
		accounts: accounts,
		sessions: sessions,
		logs:     logs,
	}
}

// audit 落一条审计记录；审计失败只打日志，不影响主流程结果
func (s *WebhookService) audit(ctx context.Context, topic, shopDomain string, raw []byte, summary interface{}, success bool) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		log.Printf("[Webhook] 审计摘要序列化失败: %v", err)
		summaryJSON = []byte("{}")
	}

	entry := &model.WebhookLog{
		ID:         uuid.NewString(),
		Topic:      topic,
		ShopDomain: shopDomain,
		Payload:    datatypes.JSON(raw),
		Summary:    datatypes.JSON(summaryJSON),
		Success:    success,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		log.Printf("[Webhook] 审计记录写入失败 (topic=%s): %v", topic, err)
	}
}

// HandleDataRequest customers/data_request：汇总店铺相关的全部存量数据
// Instagram 账号与平台客户没有直接映射，报告覆盖店铺全量并标注需人工复核
func (s *WebhookService) HandleDataRequest(ctx context.Context, payload *CompliancePayload, raw []byte) (*DataRequestReport, error) {
	if payload.customerID() == 0 && payload.customerEmail() == "" {
		return nil, ErrInvalidPayload
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		s.audit(ctx, model.TopicCustomersDataRequest, payload.ShopDomain, raw, map[string]string{"error": err.Error()}, false)
		return nil, err
	}

	report := &DataRequestReport{
		CustomerID:    payload.customerID(),
		CustomerEmail: payload.customerEmail(),
		ShopDomain:    payload.ShopDomain,
		RequestDate:   time.Now().UTC(),
		Note:          "Instagram accounts are not directly linked to customer IDs. Manual review required.",
		TotalAccounts: len(accounts),
		Accounts:      make([]AccountSummary, 0, len(accounts)),
	}

	for _, account := range accounts {
		report.Accounts = append(report.Accounts, AccountSummary{
			AccountID:         account.ID,
			InstagramUsername: account.InstagramUsername,
			AccountType:       account.AccountType,
			ConnectedAt:       account.CreatedAt,
			LastUpdated:       account.UpdatedAt,
			TotalPosts:        len(account.Posts),
		})
	}

	s.audit(ctx, model.TopicCustomersDataRequest, payload.ShopDomain, raw, report, true)
	return report, nil
}

// HandleCustomerRedact customers/redact：按客户删除数据
// 本应用不存平台客户的个人数据，账号与客户也没有映射关系，
// 所以删除数为 0，摘要里标注需人工复核；删除店铺全量数据由 shop/redact 兜底
func (s *WebhookService) HandleCustomerRedact(ctx context.Context, payload *CompliancePayload, raw []byte) (*RedactSummary, error) {
	if payload.customerID() == 0 && payload.customerEmail() == "" {
		return nil, ErrInvalidPayload
	}

	summary := &RedactSummary{
		ShopDomain: payload.ShopDomain,
		CustomerID: payload.customerID(),
		Timestamp:  time.Now().UTC(),
		Errors:     []DeletionError{},
		Note:       "No customer-to-account mapping exists; no customer personal data is stored. Flagged for manual review.",
	}

	s.audit(ctx, model.TopicCustomersRedact, payload.ShopDomain, raw, summary, true)
	return summary, nil
}

// HandleShopRedact shop/redact：店铺注销，删除全部存量数据
//
// 尽力而为的批处理：逐账号级联删除，单个失败记入 Errors 继续删下一个。
// 平台只要求最终删干净，半途而废比带着错误清单继续跑更糟。
// 返回 error 仅代表批处理本身没能开始（如账号列表都查不出来），
// 那种情况需要人工介入，controller 据此返回 requiresManualReview
func (s *WebhookService) HandleShopRedact(ctx context.Context, payload *CompliancePayload, raw []byte) (*RedactSummary, error) {
	if payload.ShopID == 0 && payload.ShopDomain == "" {
		return nil, ErrInvalidPayload
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		s.audit(ctx, model.TopicShopRedact, payload.ShopDomain, raw, map[string]string{"error": err.Error()}, false)
		return nil, fmt.Errorf("账号列表查询失败: %w", err)
	}

	summary := &RedactSummary{
		ShopID:     payload.ShopID,
		ShopDomain: payload.ShopDomain,
		Timestamp:  time.Now().UTC(),
		Errors:     []DeletionError{},
	}

	for _, account := range accounts {
		preview, err := s.accounts.DeletionPreview(ctx, account.ID)
		if err != nil {
			summary.Errors = append(summary.Errors, DeletionError{
				AccountID: account.ID,
				Username:  account.InstagramUsername,
				Error:     err.Error(),
			})
			continue
		}

		if err := s.accounts.DeleteCascade(ctx, account.ID); err != nil {
			summary.Errors = append(summary.Errors, DeletionError{
				AccountID: account.ID,
				Username:  account.InstagramUsername,
				Error:     err.Error(),
			})
			continue
		}

		summary.AccountsDeleted++
		summary.PostsDeleted += preview.PostsCount
		summary.ProductLinksDeleted += preview.ProductLinksCount
		log.Printf("[Webhook] shop/redact 已删除账号 @%s (帖子 %d 条)",
			account.InstagramUsername, preview.PostsCount)
	}

	// 离线 token 一并清理
	if payload.ShopDomain != "" {
		if err := s.sessions.DeleteByShop(ctx, payload.ShopDomain); err != nil {
			log.Printf("[Webhook] 店铺会话清理失败 (%s): %v", payload.ShopDomain, err)
		}
	}

	s.audit(ctx, model.TopicShopRedact, payload.ShopDomain, raw, summary, len(summary.Errors) == 0)
	return summary, nil
}
