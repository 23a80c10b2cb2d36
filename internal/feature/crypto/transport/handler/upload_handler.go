package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto_advisor/internal/api"
	"crypto_advisor/internal/feature/crypto/domain"
	"crypto_advisor/internal/feature/crypto/domain/entity"
)

// UploadService はCSVアップロードのユースケースインターフェースを定義します。
type UploadService interface {
	Upload(ctx context.Context, r io.Reader) (entity.UploadResult, error)
}

// UploadHandler はCSVアップロードのHTTPリクエストを処理します。
// 認可はルータ側のJWTミドルウェアが担い、ここでは扱いません。
type UploadHandler struct {
	upload UploadService
}

// NewUploadHandler はUploadHandlerの新しいインスタンスを生成します。
func NewUploadHandler(upload UploadService) *UploadHandler {
	return &UploadHandler{upload: upload}
}

// UploadCsvData はmultipartフォームの "file" フィールドからCSVを受け取り、
// 検証・マージして結果を返します。
//
// エンドポイント例:
// POST /upload/upload-csv-data
func (h *UploadHandler) UploadCsvData(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "there is no file or file is empty"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		slog.Error("failed to open uploaded file", "filename", fileHeader.Filename, "error", err)
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unreadable upload"})
		return
	}
	defer f.Close()

	result, err := h.upload.Upload(c.Request.Context(), f)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			slog.Warn("csv validation failed", "filename", fileHeader.Filename, "row", vErr.Row, "reason", vErr.Reason)
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: vErr.Error()})
		case errors.Is(err, domain.ErrUpload):
			slog.Error("upload persistence failed", "filename", fileHeader.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "upload failed, please retry later"})
		default:
			slog.Error("upload failed", "filename", fileHeader.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, api.UploadResponse{
		UploadStatus: result.UploadStatus,
		RowsAdded:    result.RowsAdded,
	})
}
