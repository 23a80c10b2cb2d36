package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"crypto_advisor/internal/app/router"
	authadapters "crypto_advisor/internal/feature/auth/adapters"
	authhandler "crypto_advisor/internal/feature/auth/transport/handler"
	authusecase "crypto_advisor/internal/feature/auth/usecase"
	"crypto_advisor/internal/feature/crypto/adapters/csvstore"
	cryptocsv "crypto_advisor/internal/feature/crypto/csv"
	cryptohandler "crypto_advisor/internal/feature/crypto/transport/handler"
	cryptousecase "crypto_advisor/internal/feature/crypto/usecase"
	"crypto_advisor/internal/platform/bootstrap"
	"crypto_advisor/internal/platform/cache"
	platformdb "crypto_advisor/internal/platform/db"
	jwtmw "crypto_advisor/internal/platform/jwt"
	platformredis "crypto_advisor/internal/platform/redis"
	"crypto_advisor/internal/shared/ratelimiter"
)

const (
	defaultPricesDir = "prices"
	defaultSeedDir   = "seed"
	defaultPort      = "8080"

	cacheTTL      = 5 * time.Minute
	tokenLifetime = time.Hour
	rateLimit     = 60
	rateInterval  = time.Minute
)

func main() {
	// 価格データディレクトリを準備（初回起動時のみシードをコピー）
	pricesDir := envOr("CRYPTO_PRICES_DIR", defaultPricesDir)
	if err := bootstrap.SeedPrices(pricesDir, envOr("CRYPTO_SEED_DIR", defaultSeedDir)); err != nil {
		log.Fatal(err)
	}

	// db
	db := platformdb.OpenDB()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository
	userRepo := authadapters.NewUserSQLite(db)
	entryStore := csvstore.NewStore(pricesDir)

	// Redisキャッシュでラップ
	cachedStore := cache.NewCachingEntryStore(rdb, cacheTTL, entryStore, "crypto")

	// Usecase
	jwtGen := jwtmw.NewGenerator(os.Getenv(jwtmw.EnvKeyJWTSecret), tokenLifetime)
	authUC := authusecase.NewAuthUsecase(userRepo, jwtGen)
	uploadUC := cryptousecase.NewUploadUsecase(cryptocsv.NewValidator(), cachedStore)
	statsUC := cryptousecase.NewStatisticsUsecase(cachedStore)
	cachedStats := cache.NewCachingStatsService(rdb, cacheTTL, statsUC, "crypto")

	// Handler
	authH := authhandler.NewAuthHandler(authUC)
	statsH := cryptohandler.NewStatisticsHandler(cachedStats)
	uploadH := cryptohandler.NewUploadHandler(uploadUC)

	// レートリミッタ起動
	rl := ratelimiter.NewRateLimiter(rateLimit, rateInterval)
	rl.StartEvictor(context.Background())

	// ルータ生成
	router := router.NewRouter(authH, statsH, uploadH, rl)

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv(jwtmw.EnvKeyJWTSecret) == "" {
		log.Println("[WARN] JWT_SECRET is not set. Set a strong secret in production.")
	}

	slog.Info("starting server", "prices_dir", pricesDir, "cache", rdb != nil)
	if err := router.Run(":" + envOr("PORT", defaultPort)); err != nil {
		log.Fatal(err)
	}
}

// envOr は環境変数が未設定または空のときにフォールバック値を返します。
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
