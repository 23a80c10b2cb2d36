// Package domain defines domain-level errors for the crypto feature.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors for crypto data operations.
// These errors represent business logic failures and should be handled appropriately by upper layers.
var (
	// ErrCryptoNotFound indicates that no dataset exists for the requested symbol.
	ErrCryptoNotFound = errors.New("no data for crypto")

	// ErrNoDataInRange indicates that the symbol is known but has no entries
	// inside the requested date window.
	ErrNoDataInRange = errors.New("no data in requested period")

	// ErrInvalidDateRange indicates a caller-supplied window that can never
	// match data: dateTo before dateFrom, or dateFrom in the future.
	ErrInvalidDateRange = errors.New("inappropriate date period")

	// ErrUpload indicates an I/O failure while persisting a validated dataset.
	// Nothing is lost: the previous dataset file survives a failed write.
	ErrUpload = errors.New("upload failed")
)

// ValidationError はCSVの構造・内容の検証失敗を表します。
// 違反した行番号（ヘッダー行が0行目）とその理由を保持します。
type ValidationError struct {
	Row    int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("csv validation failed at row %d: %s", e.Row, e.Reason)
}
