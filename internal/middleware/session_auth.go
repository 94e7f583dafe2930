package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== Session Token 配置 ====================

// SessionAuthConfig App Bridge session token 校验配置
// token 由 Shopify 前端签发，HS256，密钥为应用的 API Secret
type SessionAuthConfig struct {
	APIKey    string // aud 必须等于应用 API Key
	APISecret string // 验签密钥
}

// 全局配置
var sessionAuthConfig = &SessionAuthConfig{}

// SetSessionAuthConfig 设置配置 (启动时注入)
func SetSessionAuthConfig(cfg *SessionAuthConfig) {
	sessionAuthConfig = cfg
}

// ==================== Claims 定义 ====================

// SessionClaims App Bridge session token 的声明
// dest 形如 "https://{shop}.myshopify.com"
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// ==================== Token 解析 ====================

// ParseSessionToken 解析并校验 session token
func ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(sessionAuthConfig.APISecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	// aud 必须是本应用
	aud, err := claims.GetAudience()
	if err != nil || len(aud) == 0 || aud[0] != sessionAuthConfig.APIKey {
		return nil, errors.New("audience mismatch")
	}

	if claims.Dest == "" {
		return nil, errors.New("missing dest claim")
	}

	return claims, nil
}

// ShopFromDest 从 dest 声明中提取店铺域名
func ShopFromDest(dest string) string {
	shop := strings.TrimPrefix(dest, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	if i := strings.IndexByte(shop, '/'); i >= 0 {
		shop = shop[:i]
	}
	return shop
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyShop = "shop"
)

// SessionAuth 管理端认证中间件
// 校验 App Bridge session token 并把店铺域名注入 Context
// 店面代理和 webhook 路由不走这里，它们各自有 HMAC 验签
func SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "认证格式错误，应为 Bearer {token}",
			})
			c.Abort()
			return
		}

		claims, err := ParseSessionToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Token 无效或已过期",
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyShop, ShopFromDest(claims.Dest))
		c.Next()
	}
}

// ==================== 辅助函数 ====================

// GetShop 从 Context 获取当前店铺域名
func GetShop(c *gin.Context) string {
	if shop, exists := c.Get(ContextKeyShop); exists {
		return shop.(string)
	}
	return ""
}
