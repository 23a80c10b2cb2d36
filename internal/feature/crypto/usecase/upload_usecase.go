// Package usecase は暗号資産の価格データ操作のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"crypto_advisor/internal/feature/crypto/domain"
	"crypto_advisor/internal/feature/crypto/domain/entity"
)

// アップロード結果のステータス文字列。HTTPレスポンスにそのまま載ります。
const (
	StatusNewFileCreated = "Data was uploaded, new file created"
	StatusMerged         = "Data was merged to existing file"
	StatusAllDuplicates  = "All rows in file have timestamp duplicates on server, no data uploaded"
)

// EntryStore は銘柄ごとのデータセットの永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type EntryStore interface {
	// ListSymbols はデータセットが存在する銘柄の一覧を返します。
	ListSymbols(ctx context.Context) ([]string, error)
	// ReadEntries は指定銘柄の全エントリをタイムスタンプ昇順で返します。
	// データセットが存在しない場合は domain.ErrCryptoNotFound を返します。
	ReadEntries(ctx context.Context, symbol string) ([]entity.Entry, error)
	// WriteEntries は指定銘柄のデータセットをアトミックに置き換えます。
	WriteEntries(ctx context.Context, symbol string, entries []entity.Entry) error
}

// Validator はCSVストリームの検証を抽象化します。
type Validator interface {
	ReadAndValidate(r io.Reader) ([]entity.Entry, error)
}

// UploadUsecase はCSVアップロードの検証・マージ・永続化を統括します。
// データセットへの唯一の書き込み経路です。
type UploadUsecase struct {
	validator Validator
	store     EntryStore

	// 同一銘柄への read-modify-write を直列化するロックテーブル。
	// 銘柄が異なればアップロードは並行して進みます。
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewUploadUsecase はUploadUsecaseの新しいインスタンスを生成します。
func NewUploadUsecase(validator Validator, store EntryStore) *UploadUsecase {
	return &UploadUsecase{
		validator: validator,
		store:     store,
		locks:     map[string]*sync.Mutex{},
	}
}

// Upload はCSVストリームを検証し、新規ファイル作成またはマージを行います。
// 既存データセットと同じタイムスタンプを持つ行は黙って捨てられます
// （上書きはしません）。全行が重複の場合は何も書き込まず、キャッシュの
// 無効化も発生しません。
func (u *UploadUsecase) Upload(ctx context.Context, r io.Reader) (entity.UploadResult, error) {
	entries, err := u.validator.ReadAndValidate(r)
	if err != nil {
		return entity.UploadResult{}, err
	}
	symbol := strings.ToUpper(entries[0].Symbol)

	lock := u.lockFor(symbol)
	lock.Lock()
	defer lock.Unlock()

	existing, err := u.store.ReadEntries(ctx, symbol)
	if errors.Is(err, domain.ErrCryptoNotFound) {
		sortByTimestamp(entries)
		if err := u.store.WriteEntries(ctx, symbol, entries); err != nil {
			return entity.UploadResult{}, fmt.Errorf("%w: %v", domain.ErrUpload, err)
		}
		slog.Info("new dataset created", "symbol", symbol, "rows", len(entries))
		return entity.UploadResult{UploadStatus: StatusNewFileCreated, RowsAdded: len(entries)}, nil
	}
	if err != nil {
		return entity.UploadResult{}, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}

	seen := make(map[int64]struct{}, len(existing))
	for _, e := range existing {
		seen[e.Timestamp] = struct{}{}
	}
	filtered := make([]entity.Entry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Timestamp]; !dup {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		slog.Info("upload contained only duplicates", "symbol", symbol, "rows", len(entries))
		return entity.UploadResult{UploadStatus: StatusAllDuplicates, RowsAdded: 0}, nil
	}

	merged := append(existing, filtered...)
	sortByTimestamp(merged)
	if err := u.store.WriteEntries(ctx, symbol, merged); err != nil {
		return entity.UploadResult{}, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	slog.Info("dataset merged", "symbol", symbol, "rows_added", len(filtered), "rows_total", len(merged))
	return entity.UploadResult{UploadStatus: StatusMerged, RowsAdded: len(filtered)}, nil
}

// lockFor は銘柄ごとのミューテックスを返します（なければ作成）。
func (u *UploadUsecase) lockFor(symbol string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	if l, ok := u.locks[symbol]; ok {
		return l
	}
	l := &sync.Mutex{}
	u.locks[symbol] = l
	return l
}

func sortByTimestamp(entries []entity.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
}
