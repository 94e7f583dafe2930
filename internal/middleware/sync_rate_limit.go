package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== SyncRateLimiter 同步限流器 ====================

// SyncRateLimiter 刷新限流器
// 防止用户频繁触发手动刷新导致 Instagram API 限流
type SyncRateLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &SyncRateLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *SyncRateLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时顺带更新最后执行时间
// key: 限流键，如 "refresh:some_username"
// interval: 冷却间隔
func (r *SyncRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *SyncRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// RefreshKey 生成账号级刷新 Key
func RefreshKey(username string) string {
	return fmt.Sprintf("refresh:%s", username)
}

// DefaultRefreshInterval 手动刷新的默认冷却间隔
const DefaultRefreshInterval = 60 * time.Second

// ==================== Gin 中间件 ====================

// RefreshRateLimit 刷新限流中间件
// 按 Instagram 用户名维度限流，interval 传 0 用默认值
func RefreshRateLimit(interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = DefaultRefreshInterval
	}

	return func(c *gin.Context) {
		username := c.Param("username")
		if username == "" {
			username = c.Query("username")
		}
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "缺少 username",
			})
			c.Abort()
			return
		}

		result := GetLimiter().Check(RefreshKey(username), interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": fmt.Sprintf("刷新冷却中，请 %d 秒后重试", retryAfter),
				"data": gin.H{
					"retry_after": retryAfter,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
