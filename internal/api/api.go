// Package api defines the request and response DTOs shared by the HTTP handlers.
package api

import "github.com/shopspring/decimal"

// ErrorResponse is the uniform error payload returned by all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a generic informational payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse carries a freshly issued JWT.
type TokenResponse struct {
	Token string `json:"token"`
}

// SignupRequest は/signupのリクエストボディを表す構造体です。
// Ginのbindingタグで入力チェック（必須・メール形式・パスワード長）を行います。
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest は/loginのリクエストボディを表す構造体です。
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UploadResponse reports the outcome of a CSV upload.
type UploadResponse struct {
	UploadStatus string `json:"uploadStatus"`
	RowsAdded    int    `json:"rowsAdded"`
}

// CryptoStatsResponse carries the min/max/oldest/newest prices of one symbol.
type CryptoStatsResponse struct {
	Symbol string          `json:"symbol"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Oldest decimal.Decimal `json:"oldest"`
	Newest decimal.Decimal `json:"newest"`
}

// NormalizedRangeResponse carries one symbol's normalized range. DateFrom and
// DateTo are the actual oldest/newest data dates inside the queried window.
type NormalizedRangeResponse struct {
	Symbol          string          `json:"symbol"`
	NormalizedValue decimal.Decimal `json:"normalizedValue"`
	DateFrom        string          `json:"dateFrom"`
	DateTo          string          `json:"dateTo"`
}
