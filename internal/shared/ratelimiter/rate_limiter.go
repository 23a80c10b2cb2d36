// Package ratelimiter はクライアント毎のリクエスト頻度制限を実装します。
package ratelimiter

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter は固定ウィンドウでクライアント毎のリクエスト数を制限します。
type RateLimiter struct {
	limit    int           // 1ウィンドウあたりの上限
	interval time.Duration // どの単位でリセットするか

	mu        sync.Mutex
	counts    map[string]int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		counts:    map[string]int{},
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// Allow は指定クライアントのリクエストを受け付けてよいかを返します。
// interval を過ぎていたら全カウントをリセットします。
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.counts = map[string]int{}
		rl.lastReset = now
	}

	rl.counts[key]++
	return rl.counts[key] <= rl.limit
}

// StartEvictor はintervalごとにカウントをクリアするバックグラウンド
// ゴルーチンを起動します。Allow側の遅延リセットと重ねて、アイドルな
// クライアントのエントリがマップに残り続けるのを防ぎます。
func (rl *RateLimiter) StartEvictor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(rl.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.mu.Lock()
				slog.Debug("evicting request rate counters", "clients", len(rl.counts))
				rl.counts = map[string]int{}
				rl.lastReset = rl.now()
				rl.mu.Unlock()
			}
		}
	}()
}

// Middleware はレートリミットをGinミドルウェアとして適用します。
// クライアントはIPアドレスで識別し、超過時は429を返します。
func Middleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
