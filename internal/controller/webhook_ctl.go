package controller

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"instafeed_dev_v1_202608/internal/service"
	"instafeed_dev_v1_202608/pkg/shopify"
)

// WebhookController 平台合规 webhook
// 验签基于原始请求体，必须在 JSON 解析之前把字节读出来
type WebhookController struct {
	webhookService *service.WebhookService
	apiSecret      string
}

func NewWebhookController(webhookService *service.WebhookService, apiSecret string) *WebhookController {
	return &WebhookController{
		webhookService: webhookService,
		apiSecret:      apiSecret,
	}
}

// readAndVerify 读原始 body 并验签，失败时已写响应
func (ctrl *WebhookController) readAndVerify(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return nil, false
	}

	hmacHeader := c.GetHeader("X-Shopify-Hmac-Sha256")
	if !shopify.VerifyWebhookSignature(raw, hmacHeader, ctrl.apiSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid hmac"})
		return nil, false
	}

	return raw, true
}

func parsePayload(c *gin.Context, raw []byte) (*service.CompliancePayload, bool) {
	var payload service.CompliancePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return nil, false
	}
	return &payload, true
}

// CustomersDataRequest 客户数据导出请求
// @Summary 处理 customers/data_request webhook
// @Tags Webhook
// @Success 200 {object} service.DataRequestReport
// @Router /webhooks/customers/data_request [post]
func (ctrl *WebhookController) CustomersDataRequest(c *gin.Context) {
	raw, ok := ctrl.readAndVerify(c)
	if !ok {
		return
	}
	payload, ok := parsePayload(c, raw)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	report, err := ctrl.webhookService.HandleDataRequest(ctx, payload, raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing customer identifiers"})
			return
		}
		log.Printf("[Webhook] customers/data_request 处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Data request received and logged",
		"report":  report,
	})
}

// CustomersRedact 客户数据删除请求
// @Summary 处理 customers/redact webhook
// @Tags Webhook
// @Success 200 {object} service.RedactSummary
// @Router /webhooks/customers/redact [post]
func (ctrl *WebhookController) CustomersRedact(c *gin.Context) {
	raw, ok := ctrl.readAndVerify(c)
	if !ok {
		return
	}
	payload, ok := parsePayload(c, raw)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	summary, err := ctrl.webhookService.HandleCustomerRedact(ctx, payload, raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing customer identifiers"})
			return
		}
		log.Printf("[Webhook] customers/redact 处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Customer redaction processed",
		"summary": summary,
	})
}

// ShopRedact 店铺注销数据删除
// @Summary 处理 shop/redact webhook
// @Tags Webhook
// @Success 200 {object} service.RedactSummary
// @Router /webhooks/shop/redact [post]
func (ctrl *WebhookController) ShopRedact(c *gin.Context) {
	raw, ok := ctrl.readAndVerify(c)
	if !ok {
		return
	}
	payload, ok := parsePayload(c, raw)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	summary, err := ctrl.webhookService.HandleShopRedact(ctx, payload, raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing shop identifiers"})
			return
		}
		// 批处理没能开始，需要人工介入清数据
		log.Printf("[Webhook] shop/redact 处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":                "internal error",
			"requiresManualReview": true,
		})
		return
	}

	// 单账号级的失败在 summary.Errors 里，批处理本身算成功
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Shop redaction processed",
		"summary": summary,
	})
}
