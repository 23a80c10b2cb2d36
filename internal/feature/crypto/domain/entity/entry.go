// Package entity defines the domain models for the crypto feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry represents one validated price observation for a cryptocurrency.
// Entries are immutable after validation; a dataset changes only through a
// full-file rewrite on upload.
type Entry struct {
	Timestamp int64           `json:"timestamp"` // Observation time as epoch milliseconds
	Symbol    string          `json:"symbol"`    // Crypto symbol (e.g., "BTC", "ETH")
	Price     decimal.Decimal `json:"price"`     // Quoted price, non-negative decimal
	Date      time.Time       `json:"date"`      // Calendar date derived from Timestamp, always UTC midnight
}

// NewEntry builds an Entry and derives its Date from the timestamp.
// Date is never supplied by callers so ingestion and queries always agree
// on the day a price belongs to.
func NewEntry(timestamp int64, symbol string, price decimal.Decimal) Entry {
	return Entry{
		Timestamp: timestamp,
		Symbol:    symbol,
		Price:     price,
		Date:      DateOfMillis(timestamp),
	}
}

// DateOfMillis converts epoch milliseconds to a UTC calendar date.
// The zone is fixed to UTC; a varying zone would make date-window queries
// non-reproducible across ingestion and read paths.
func DateOfMillis(millis int64) time.Time {
	t := time.UnixMilli(millis).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
