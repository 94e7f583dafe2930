package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"testing"
)

const testSecret = "hush_dont_tell"

// signProxyQuery 按 App Proxy 规则计算签名：去掉 signature 参数，
// 键字典序排序后 key=value 直接拼接（无分隔符），多值用逗号连接
func signProxyQuery(values url.Values, secret string) string {
	cloned := url.Values{}
	for k, v := range values {
		cloned[k] = v
	}
	cloned.Del("signature")

	keys := make([]string, 0, len(cloned))
	for k := range cloned {
		keys = append(keys, k)
	}
	// 手动冒泡，避免测试依赖被测代码的排序实现
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}

	message := ""
	for _, k := range keys {
		joined := ""
		for i, v := range cloned[k] {
			if i > 0 {
				joined += ","
			}
			joined += v
		}
		message += k + "=" + joined
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyProxySignature_Valid(t *testing.T) {
	values := url.Values{}
	values.Set("shop", "example.myshopify.com")
	values.Set("path_prefix", "/apps/feed")
	values.Set("timestamp", "1724900000")
	values.Set("dataset", "default")
	values.Set("signature", signProxyQuery(values, testSecret))

	requestURL := "/proxy/feed?" + values.Encode()
	if !VerifyProxySignature(requestURL, testSecret) {
		t.Error("合法签名应该通过校验")
	}
}

func TestVerifyProxySignature_MultiValueParam(t *testing.T) {
	values := url.Values{}
	values.Set("shop", "example.myshopify.com")
	values.Add("ids", "1")
	values.Add("ids", "2")
	values.Set("signature", signProxyQuery(values, testSecret))

	requestURL := "/proxy/feed?" + values.Encode()
	if !VerifyProxySignature(requestURL, testSecret) {
		t.Error("多值参数应按逗号连接后参与签名")
	}
}

func TestVerifyProxySignature_TamperedParam(t *testing.T) {
	values := url.Values{}
	values.Set("shop", "example.myshopify.com")
	values.Set("timestamp", "1724900000")
	values.Set("signature", signProxyQuery(values, testSecret))

	// 签完再篡改参数
	values.Set("shop", "evil.myshopify.com")

	requestURL := "/proxy/feed?" + values.Encode()
	if VerifyProxySignature(requestURL, testSecret) {
		t.Error("被篡改的参数不应通过校验")
	}
}

func TestVerifyProxySignature_MissingSignature(t *testing.T) {
	if VerifyProxySignature("/proxy/feed?shop=example.myshopify.com", testSecret) {
		t.Error("缺少 signature 参数不应通过校验")
	}
}

func TestVerifyProxySignature_WrongSecret(t *testing.T) {
	values := url.Values{}
	values.Set("shop", "example.myshopify.com")
	values.Set("signature", signProxyQuery(values, "other_secret"))

	requestURL := "/proxy/feed?" + values.Encode()
	if VerifyProxySignature(requestURL, testSecret) {
		t.Error("密钥不匹配不应通过校验")
	}
}

// ==================== Webhook 签名 ====================

func signWebhookBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	body := []byte(`{"shop_id":123,"shop_domain":"example.myshopify.com"}`)
	header := signWebhookBody(body, testSecret)

	if !VerifyWebhookSignature(body, header, testSecret) {
		t.Error("合法 webhook 签名应该通过校验")
	}
}

func TestVerifyWebhookSignature_ReorderedJSON(t *testing.T) {
	// 语义相同但字节不同的 JSON，签名必须失败：校验对象是原始字节
	original := []byte(`{"shop_id":123,"shop_domain":"example.myshopify.com"}`)
	reordered := []byte(`{"shop_domain":"example.myshopify.com","shop_id":123}`)
	header := signWebhookBody(original, testSecret)

	if VerifyWebhookSignature(reordered, header, testSecret) {
		t.Error("字节不一致的 body 不应通过校验")
	}
}

func TestVerifyWebhookSignature_EmptyHeader(t *testing.T) {
	if VerifyWebhookSignature([]byte("{}"), "", testSecret) {
		t.Error("空签名头不应通过校验")
	}
}

func TestVerifyWebhookSignature_NotBase64(t *testing.T) {
	if VerifyWebhookSignature([]byte("{}"), "!!!not-base64!!!", testSecret) {
		t.Error("非法 base64 签名头不应通过校验")
	}
}

// ==================== OAuth 安装回调签名 ====================

func signOAuthQuery(values url.Values, secret string) string {
	cloned := url.Values{}
	for k, v := range values {
		cloned[k] = v
	}
	cloned.Del("hmac")

	keys := make([]string, 0, len(cloned))
	for k := range cloned {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}

	message := ""
	for i, k := range keys {
		if i > 0 {
			message += "&"
		}
		message += k + "=" + cloned.Get(k)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyOAuthHMAC(t *testing.T) {
	values := url.Values{}
	values.Set("shop", "example.myshopify.com")
	values.Set("code", "abc123")
	values.Set("state", "xyz")
	values.Set("timestamp", "1724900000")
	values.Set("hmac", signOAuthQuery(values, testSecret))

	if !VerifyOAuthHMAC(values, testSecret) {
		t.Error("合法安装回调签名应该通过校验")
	}

	values.Set("code", "tampered")
	if VerifyOAuthHMAC(values, testSecret) {
		t.Error("被篡改的回调参数不应通过校验")
	}
}

func TestIsValidShopDomain(t *testing.T) {
	valid := []string{
		"example.myshopify.com",
		"my-store-2.myshopify.com",
	}
	for _, shop := range valid {
		if !IsValidShopDomain(shop) {
			t.Errorf("%s 应该是合法店铺域名", shop)
		}
	}

	invalid := []string{
		"",
		"example.com",
		"evil.myshopify.com.attacker.io",
		"-bad.myshopify.com",
	}
	for _, shop := range invalid {
		if IsValidShopDomain(shop) {
			t.Errorf("%s 不应是合法店铺域名", shop)
		}
	}
}
