package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CryptoStats は1銘柄の期間内の統計値（最小・最大・最古・最新価格）を表します。
type CryptoStats struct {
	Symbol string          `json:"symbol"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Oldest decimal.Decimal `json:"oldest"`
	Newest decimal.Decimal `json:"newest"`
}

// NormalizedRange は1銘柄の正規化レンジ (max-min)/min を表します。
// DateFrom / DateTo はリクエストされた期間ではなく、期間内に実際に存在した
// 最古・最新エントリの日付です。
type NormalizedRange struct {
	Symbol          string          `json:"symbol"`
	NormalizedValue decimal.Decimal `json:"normalizedValue"`
	DateFrom        time.Time       `json:"dateFrom"`
	DateTo          time.Time       `json:"dateTo"`
}

// UploadResult はCSVアップロード処理の結果を表します。
type UploadResult struct {
	UploadStatus string `json:"uploadStatus"`
	RowsAdded    int    `json:"rowsAdded"`
}
