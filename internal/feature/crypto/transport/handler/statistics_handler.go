// Package handler はcryptoフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crypto_advisor/internal/api"
	"crypto_advisor/internal/feature/crypto/domain"
	"crypto_advisor/internal/feature/crypto/domain/entity"
)

// StatisticsService は統計クエリのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type StatisticsService interface {
	GetCryptoStatistics(ctx context.Context, crypto string, from, to time.Time) (entity.CryptoStats, error)
	GetAllNormalizedRanges(ctx context.Context) ([]entity.NormalizedRange, error)
	GetHighestNormalizedRange(ctx context.Context, from, to time.Time) (entity.NormalizedRange, error)
}

// StatisticsHandler は統計クエリのHTTPリクエストを処理します。
type StatisticsHandler struct {
	stats StatisticsService
}

// NewStatisticsHandler はStatisticsHandlerの新しいインスタンスを生成します。
func NewStatisticsHandler(stats StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

// GetNormalizedValues は全銘柄の正規化レンジを降順で返します。
//
// エンドポイント例:
// GET /statistics/normalized-values
func (h *StatisticsHandler) GetNormalizedValues(c *gin.Context) {
	ranges, err := h.stats.GetAllNormalizedRanges(c.Request.Context())
	if err != nil {
		writeStatisticsError(c, err)
		return
	}
	out := make([]api.NormalizedRangeResponse, 0, len(ranges))
	for _, nr := range ranges {
		out = append(out, toNormalizedRangeResponse(nr))
	}
	c.JSON(http.StatusOK, out)
}

// GetCryptoStatistics は指定銘柄の統計値を返します。期間はクエリパラメータ
// date_from / date_to（yyyy-MM-dd）で任意に絞り込めます。
//
// エンドポイント例:
// GET /statistics/crypto-statistics/BTC?date_from=2022-01-01&date_to=2022-02-01
func (h *StatisticsHandler) GetCryptoStatistics(c *gin.Context) {
	crypto := c.Param("crypto")

	from, ok := parseOptionalDate(c, c.Query("date_from"))
	if !ok {
		return
	}
	to, ok := parseOptionalDate(c, c.Query("date_to"))
	if !ok {
		return
	}

	stats, err := h.stats.GetCryptoStatistics(c.Request.Context(), crypto, from, to)
	if err != nil {
		writeStatisticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.CryptoStatsResponse{
		Symbol: stats.Symbol,
		Min:    stats.Min,
		Max:    stats.Max,
		Oldest: stats.Oldest,
		Newest: stats.Newest,
	})
}

// GetHighestNormalizedRange は指定期間で最大の正規化レンジを持つ銘柄を
// 返します。
//
// エンドポイント例:
// GET /statistics/highest-normalized-range/2022-01-01/2022-01-31
func (h *StatisticsHandler) GetHighestNormalizedRange(c *gin.Context) {
	from, err := time.ParseInLocation(time.DateOnly, c.Param("dateFrom"), time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "dateFrom must be formatted yyyy-MM-dd"})
		return
	}
	to, err := time.ParseInLocation(time.DateOnly, c.Param("dateTo"), time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "dateTo must be formatted yyyy-MM-dd"})
		return
	}

	nr, err := h.stats.GetHighestNormalizedRange(c.Request.Context(), from, to)
	if err != nil {
		writeStatisticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNormalizedRangeResponse(nr))
}

// parseOptionalDate は空文字列をゼロ値として扱い、それ以外はyyyy-MM-ddと
// して解釈します。パースに失敗した場合は400を書き込み、okにfalseを返します。
func parseOptionalDate(c *gin.Context, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "dates must be formatted yyyy-MM-dd"})
		return time.Time{}, false
	}
	return t, true
}

// writeStatisticsError はドメインエラーをHTTPステータスに対応付けます。
// 「データの直し方が分かる」400、「資源が無い」404、「後で再試行」500を
// クライアントが区別できるようにします。
func writeStatisticsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrCryptoNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNoDataInRange), errors.Is(err, domain.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

func toNormalizedRangeResponse(nr entity.NormalizedRange) api.NormalizedRangeResponse {
	return api.NormalizedRangeResponse{
		Symbol:          nr.Symbol,
		NormalizedValue: nr.NormalizedValue,
		DateFrom:        nr.DateFrom.Format(time.DateOnly),
		DateTo:          nr.DateTo.Format(time.DateOnly),
	}
}
