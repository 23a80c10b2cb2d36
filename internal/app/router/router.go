package router

import (
	"github.com/gin-gonic/gin"

	authhandler "crypto_advisor/internal/feature/auth/transport/handler"
	cryptohandler "crypto_advisor/internal/feature/crypto/transport/handler"
	httphandler "crypto_advisor/internal/platform/http/handler"
	jwtmw "crypto_advisor/internal/platform/jwt"
	"crypto_advisor/internal/shared/ratelimiter"
)

func NewRouter(authHandler *authhandler.AuthHandler, stats *cryptohandler.StatisticsHandler,
	upload *cryptohandler.UploadHandler, rl *ratelimiter.RateLimiter) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", httphandler.Health)
	// 新規ユーザー登録
	r.POST("/signup", authHandler.Signup)
	// ログイン（JWT 発行）
	r.POST("/login", authHandler.Login)

	// 統計系エンドポイント（認証不要、レートリミットのみ）
	statistics := r.Group("/statistics")
	statistics.Use(ratelimiter.Middleware(rl))
	{
		statistics.GET("/normalized-values", stats.GetNormalizedValues)
		statistics.GET("/crypto-statistics/:crypto", stats.GetCryptoStatistics)
		statistics.GET("/highest-normalized-range/:dateFrom/:dateTo", stats.GetHighestNormalizedRange)
	}

	// アップロード系エンドポイント
	// jwtmw.AuthRequired() ミドルウェアを適用
	// → リクエストヘッダーに write スコープ付き JWT が必要になる
	uploads := r.Group("/upload")
	uploads.Use(ratelimiter.Middleware(rl), jwtmw.AuthRequired())
	{
		uploads.POST("/upload-csv-data", upload.UploadCsvData)
	}

	return r
}
