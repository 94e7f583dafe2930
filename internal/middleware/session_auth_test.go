package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testAPIKey    = "test-api-key"
	testAPISecret = "test-api-secret"
)

func signSessionToken(t *testing.T, aud, dest, secret string, expiresAt time.Time) string {
	claims := &SessionClaims{
		Dest: dest,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{aud},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("签发测试 token 失败: %v", err)
	}
	return token
}

func setupAuthRouter() *gin.Engine {
	SetSessionAuthConfig(&SessionAuthConfig{
		APIKey:    testAPIKey,
		APISecret: testAPISecret,
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/ping", SessionAuth(), func(c *gin.Context) {
		c.JSON(200, gin.H{"shop": GetShop(c)})
	})
	return r
}

func doAuthRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestSessionAuth_ValidToken(t *testing.T) {
	r := setupAuthRouter()
	token := signSessionToken(t, testAPIKey, "https://example.myshopify.com", testAPISecret, time.Now().Add(time.Minute))

	w := doAuthRequest(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("合法 token 应放行，实际 %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"shop":"example.myshopify.com"}` {
		t.Errorf("应从 dest 提取店铺域名: %s", w.Body.String())
	}
}

func TestSessionAuth_MissingHeader(t *testing.T) {
	r := setupAuthRouter()
	if w := doAuthRequest(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("缺少认证头应 401，实际 %d", w.Code)
	}
}

func TestSessionAuth_WrongAudience(t *testing.T) {
	r := setupAuthRouter()
	token := signSessionToken(t, "other-app", "https://example.myshopify.com", testAPISecret, time.Now().Add(time.Minute))

	if w := doAuthRequest(r, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("aud 不匹配应 401，实际 %d", w.Code)
	}
}

func TestSessionAuth_ExpiredToken(t *testing.T) {
	r := setupAuthRouter()
	token := signSessionToken(t, testAPIKey, "https://example.myshopify.com", testAPISecret, time.Now().Add(-time.Minute))

	if w := doAuthRequest(r, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("过期 token 应 401，实际 %d", w.Code)
	}
}

func TestSessionAuth_WrongSecret(t *testing.T) {
	r := setupAuthRouter()
	token := signSessionToken(t, testAPIKey, "https://example.myshopify.com", "wrong-secret", time.Now().Add(time.Minute))

	if w := doAuthRequest(r, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("密钥不匹配应 401，实际 %d", w.Code)
	}
}

func TestRefreshRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/posts/refresh", RefreshRateLimit(time.Minute), func(c *gin.Context) {
		c.JSON(200, gin.H{"code": 0})
	})

	hit := func(username string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/posts/refresh?username="+username, nil)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := hit("cooldown_user"); code != http.StatusOK {
		t.Fatalf("首次刷新应放行，实际 %d", code)
	}
	if code := hit("cooldown_user"); code != http.StatusTooManyRequests {
		t.Fatalf("冷却期内应 429，实际 %d", code)
	}
	// 其他账号不受影响
	if code := hit("another_user"); code != http.StatusOK {
		t.Fatalf("不同账号应独立限流，实际 %d", code)
	}

	GetLimiter().Reset(RefreshKey("cooldown_user"))
	GetLimiter().Reset(RefreshKey("another_user"))
}
