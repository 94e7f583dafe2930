package shopify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== Admin GraphQL 客户端 ====================

// DefaultAPIVersion Shopify Admin API 版本
const DefaultAPIVersion = "2025-01"

// Client Shopify Admin GraphQL 客户端
// 所有出站调用带超时，失败直接上抛，不做静默重试（计费接口不幂等）
type Client struct {
	http       *resty.Client
	apiVersion string
}

// NewClient 工厂方法
func NewClient(apiVersion string, timeout time.Duration) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	client := resty.New()
	client.SetTimeout(timeout)

	return &Client{
		http:       client,
		apiVersion: apiVersion,
	}
}

// GraphQLError GraphQL 错误条目
type GraphQLError struct {
	Message string `json:"message"`
}

// UserError 业务级错误 (mutation 返回)
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// graphQLRequest 请求体
type graphQLRequest struct {
	Query     string      `json:"query"`
	Variables interface{} `json:"variables,omitempty"`
}

// post 执行一次 GraphQL 调用，结果解析进 out
func (c *Client) post(ctx context.Context, shopDomain, accessToken, query string, variables interface{}, out interface{}) error {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shopDomain, c.apiVersion)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Shopify-Access-Token", accessToken).
		SetBody(graphQLRequest{Query: query, Variables: variables}).
		SetResult(out).
		Post(endpoint)

	if err != nil {
		return fmt.Errorf("shopify graphql 请求失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("shopify graphql 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// ==================== 订阅查询 ====================

// ActiveSubscription 当前应用订阅
type ActiveSubscription struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"` // ACTIVE / CANCELLED / EXPIRED ...
	CreatedAt        time.Time  `json:"createdAt"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd"`
	TrialDays        int        `json:"trialDays"`
	Test             bool       `json:"test"`
}

type subscriptionStatusResp struct {
	Data struct {
		CurrentAppInstallation struct {
			ActiveSubscriptions []ActiveSubscription `json:"activeSubscriptions"`
		} `json:"currentAppInstallation"`
	} `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// GetSubscriptionStatus 查询店铺当前的应用订阅列表
func (c *Client) GetSubscriptionStatus(ctx context.Context, shopDomain, accessToken string) ([]ActiveSubscription, error) {
	const query = `
    query {
        currentAppInstallation {
          activeSubscriptions {
            id
            name
            status
            createdAt
            currentPeriodEnd
            trialDays
            test
          }
        }
      }`

	var res subscriptionStatusResp
	if err := c.post(ctx, shopDomain, accessToken, query, nil, &res); err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("订阅状态查询失败: %s", res.Errors[0].Message)
	}
	return res.Data.CurrentAppInstallation.ActiveSubscriptions, nil
}

// ==================== 订阅创建 / 取消 ====================

// CreateSubscriptionResult 创建结果，前端需要跳转 ConfirmationURL 完成确认
type CreateSubscriptionResult struct {
	SubscriptionID  string
	ConfirmationURL string
}

type subscriptionCreateResp struct {
	Data struct {
		AppSubscriptionCreate struct {
			AppSubscription struct {
				ID string `json:"id"`
			} `json:"appSubscription"`
			ConfirmationURL string      `json:"confirmationUrl"`
			UserErrors      []UserError `json:"userErrors"`
		} `json:"appSubscriptionCreate"`
	} `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// CreateSubscription 创建 Pro Plan 订阅 ($2 / 30 天，7 天试用)
// test=true 时走测试计费，不产生真实扣款
func (c *Client) CreateSubscription(ctx context.Context, shopDomain, accessToken, returnURL string, test bool) (*CreateSubscriptionResult, error) {
	const mutation = `
   mutation CreateAppSubscription($returnUrl: URL!, $test: Boolean!) {
    appSubscriptionCreate(
    name: "Pro Plan",
    returnUrl: $returnUrl,
    test: $test,
    trialDays: 7,
    lineItems: [
     {
      plan: {
        appRecurringPricingDetails: {
          price: { amount: 2, currencyCode: USD }
          interval: EVERY_30_DAYS
        }
      }
     }
    ]) {
      appSubscription { id }
      confirmationUrl
      userErrors { field message }
    }
   }`

	variables := map[string]interface{}{
		"returnUrl": returnURL,
		"test":      test,
	}

	var res subscriptionCreateResp
	if err := c.post(ctx, shopDomain, accessToken, mutation, variables, &res); err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("订阅创建失败: %s", res.Errors[0].Message)
	}
	if ue := res.Data.AppSubscriptionCreate.UserErrors; len(ue) > 0 {
		return nil, fmt.Errorf("订阅创建被拒绝: %s", ue[0].Message)
	}

	return &CreateSubscriptionResult{
		SubscriptionID:  res.Data.AppSubscriptionCreate.AppSubscription.ID,
		ConfirmationURL: res.Data.AppSubscriptionCreate.ConfirmationURL,
	}, nil
}

type subscriptionCancelResp struct {
	Data struct {
		AppSubscriptionCancel struct {
			AppSubscription struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"appSubscription"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"appSubscriptionCancel"`
	} `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// CancelSubscription 取消订阅 (prorate 按比例退款)
func (c *Client) CancelSubscription(ctx context.Context, shopDomain, accessToken, subscriptionID string) error {
	const mutation = `
  mutation AppSubscriptionCancel($id: ID!, $prorate: Boolean) {
    appSubscriptionCancel(id: $id, prorate: $prorate) {
      userErrors { field message }
      appSubscription { id status }
    }
  }`

	variables := map[string]interface{}{
		"id":      subscriptionID,
		"prorate": true,
	}

	var res subscriptionCancelResp
	if err := c.post(ctx, shopDomain, accessToken, mutation, variables, &res); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("订阅取消失败: %s", res.Errors[0].Message)
	}
	if ue := res.Data.AppSubscriptionCancel.UserErrors; len(ue) > 0 {
		return fmt.Errorf("订阅取消被拒绝: %s", ue[0].Message)
	}
	return nil
}

// ==================== 商品搜索 ====================

// ProductBrief 商品搜索结果 (关联弹窗用，字段与关联快照对齐)
type ProductBrief struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Handle string  `json:"handle"`
	Image  *string `json:"image"`
	Price  *string `json:"price"`
}

type productSearchResp struct {
	Data struct {
		Products struct {
			Edges []struct {
				Node struct {
					ID            string `json:"id"`
					Title         string `json:"title"`
					Handle        string `json:"handle"`
					FeaturedImage *struct {
						URL string `json:"url"`
					} `json:"featuredImage"`
					PriceRangeV2 struct {
						MinVariantPrice struct {
							Amount string `json:"amount"`
						} `json:"minVariantPrice"`
					} `json:"priceRangeV2"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	} `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// SearchProducts 按关键词搜索店铺商品
func (c *Client) SearchProducts(ctx context.Context, shopDomain, accessToken, keyword string, limit int) ([]ProductBrief, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
    query SearchProducts($query: String!, $first: Int!) {
      products(first: $first, query: $query) {
        edges {
          node {
            id
            title
            handle
            featuredImage { url }
            priceRangeV2 { minVariantPrice { amount } }
          }
        }
      }
    }`

	variables := map[string]interface{}{
		"query": keyword,
		"first": limit,
	}

	var res productSearchResp
	if err := c.post(ctx, shopDomain, accessToken, query, variables, &res); err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("商品搜索失败: %s", res.Errors[0].Message)
	}

	out := make([]ProductBrief, 0, len(res.Data.Products.Edges))
	for _, edge := range res.Data.Products.Edges {
		brief := ProductBrief{
			ID:     edge.Node.ID,
			Title:  edge.Node.Title,
			Handle: edge.Node.Handle,
		}
		if edge.Node.FeaturedImage != nil {
			img := edge.Node.FeaturedImage.URL
			brief.Image = &img
		}
		if amount := edge.Node.PriceRangeV2.MinVariantPrice.Amount; amount != "" {
			brief.Price = &amount
		}
		out = append(out, brief)
	}
	return out, nil
}
