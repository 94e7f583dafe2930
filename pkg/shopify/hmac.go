package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// ==================== HMAC 验签 ====================
//
// Shopify 的两种签名方式：
//   1. App Proxy: signature 参数，去掉 signature 后按 key 字典序排序，
//      "key=value" 无分隔符拼接，HMAC-SHA256 后 hex 编码
//   2. Webhook: X-Shopify-Hmac-Sha256 头，对未解析的原始 body 做
//      HMAC-SHA256 后 base64 编码
//
// 两者都必须在任何数据访问之前完成，失败一律按未授权处理。

// VerifyProxySignature 校验店面代理请求的 signature 参数
// requestURL 为完整的请求 URL（含 query string）
// 任何一步失败都返回 false，绝不 panic
func VerifyProxySignature(requestURL string, secret string) bool {
	if secret == "" {
		return false
	}

	u, err := url.Parse(requestURL)
	if err != nil {
		return false
	}

	params, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return false
	}

	signature := params.Get("signature")
	if signature == "" {
		return false
	}
	params.Del("signature")

	// 按 key 字典序排序后无分隔符拼接
	// 多值参数按 Shopify 口径用逗号连接 (如 path_prefix 不会多值，shop 也不会，
	// 但保持口径以防平台扩展)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strings.Join(params[k], ","))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sb.String()))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	// hmac.Equal 恒定时间比较
	return hmac.Equal(provided, expected)
}

// VerifyWebhookSignature 校验 webhook 的 X-Shopify-Hmac-Sha256 头
// body 必须是收到的原始字节，不能是 JSON 解析后再序列化的结果，
// 否则 key 顺序/空白差异会导致验签失败
func VerifyWebhookSignature(body []byte, hmacHeader string, secret string) bool {
	if hmacHeader == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(hmacHeader))
}
