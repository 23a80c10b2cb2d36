package usecase_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"crypto_advisor/internal/feature/crypto/domain"
	"crypto_advisor/internal/feature/crypto/domain/entity"
	"crypto_advisor/internal/feature/crypto/usecase"
)

// ErrDisk はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDisk = errors.New("disk error")

// mockEntryStore はEntryStoreインターフェースのモック実装です。
type mockEntryStore struct {
	ListSymbolsFunc  func(ctx context.Context) ([]string, error)
	ReadEntriesFunc  func(ctx context.Context, symbol string) ([]entity.Entry, error)
	WriteEntriesFunc func(ctx context.Context, symbol string, entries []entity.Entry) error
	WriteCalls       int
}

func (m *mockEntryStore) ListSymbols(ctx context.Context) ([]string, error) {
	if m.ListSymbolsFunc != nil {
		return m.ListSymbolsFunc(ctx)
	}
	return nil, errors.New("ListSymbolsFunc is not implemented")
}

func (m *mockEntryStore) ReadEntries(ctx context.Context, symbol string) ([]entity.Entry, error) {
	if m.ReadEntriesFunc != nil {
		return m.ReadEntriesFunc(ctx, symbol)
	}
	return nil, errors.New("ReadEntriesFunc is not implemented")
}

func (m *mockEntryStore) WriteEntries(ctx context.Context, symbol string, entries []entity.Entry) error {
	m.WriteCalls++
	if m.WriteEntriesFunc != nil {
		return m.WriteEntriesFunc(ctx, symbol, entries)
	}
	return errors.New("WriteEntriesFunc is not implemented")
}

// mockValidator はValidatorインターフェースのモック実装です。
type mockValidator struct {
	ReadAndValidateFunc func(r io.Reader) ([]entity.Entry, error)
}

func (m *mockValidator) ReadAndValidate(r io.Reader) ([]entity.Entry, error) {
	return m.ReadAndValidateFunc(r)
}

func entry(millis int64, symbol string, price int64) entity.Entry {
	return entity.NewEntry(millis, symbol, decimal.NewFromInt(price))
}

// TestUploadUsecase_Upload_NewFile は未知の銘柄で新規ファイルが作成されることをテストします。
func TestUploadUsecase_Upload_NewFile(t *testing.T) {
	parsed := []entity.Entry{
		entry(3000, "BTC", 103),
		entry(1000, "BTC", 101),
		entry(2000, "BTC", 102),
	}
	var written []entity.Entry
	store := &mockEntryStore{
		ReadEntriesFunc: func(ctx context.Context, symbol string) ([]entity.Entry, error) {
			return nil, domain.ErrCryptoNotFound
		},
		WriteEntriesFunc: func(ctx context.Context, symbol string, entries []entity.Entry) error {
			if symbol != "BTC" {
				t.Errorf("expected symbol BTC, got %q", symbol)
			}
			written = entries
			return nil
		},
	}
	validator := &mockValidator{
		ReadAndValidateFunc: func(r io.Reader) ([]entity.Entry, error) { return parsed, nil },
	}

	uc := usecase.NewUploadUsecase(validator, store)
	result, err := uc.Upload(context.Background(), strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UploadStatus != usecase.StatusNewFileCreated {
		t.Errorf("expected status %q, got %q", usecase.StatusNewFileCreated, result.UploadStatus)
	}
	if result.RowsAdded != 3 {
		t.Errorf("expected 3 rows added, got %d", result.RowsAdded)
	}
	// 書き込みはタイムスタンプ昇順
	if len(written) != 3 || written[0].Timestamp != 1000 || written[2].Timestamp != 3000 {
		t.Errorf("expected entries sorted by timestamp, got %+v", written)
	}
}

// TestUploadUsecase_Upload_Merge は既存データセットへのマージで重複行が捨てられることをテストします。
func TestUploadUsecase_Upload_Merge(t *testing.T) {
	existing := []entity.Entry{
		entry(1000, "BTC", 101),
		entry(2000, "BTC", 102),
	}
	parsed := []entity.Entry{
		entry(2000, "BTC", 999), // 既存と同じタイムスタンプ: 黙って捨てられ、上書きされない
		entry(3000, "BTC", 103),
	}
	var written []entity.Entry
	store := &mockEntryStore{
		ReadEntriesFunc: func(ctx context.Context, symbol string) ([]entity.Entry, error) {
			return existing, nil
		},
		WriteEntriesFunc: func(ctx context.Context, symbol string, entries []entity.Entry) error {
			written = entries
			return nil
		},
	}
	validator := &mockValidator{
		ReadAndValidateFunc: func(r io.Reader) ([]entity.Entry, error) { return parsed, nil },
	}

	uc := usecase.NewUploadUsecase(validator, store)
	result, err := uc.Upload(context.Background(), strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UploadStatus != usecase.StatusMerged {
		t.Errorf("expected status %q, got %q", usecase.StatusMerged, result.UploadStatus)
	}
	if result.RowsAdded != 1 {
		t.Errorf("expected 1 row added, got %d", result.RowsAdded)
	}
	if len(written) != 3 {
		t.Fatalf("expected 3 entries written, got %d", len(written))
	}
	// タイムスタンプ2000の行は既存の価格102のまま
	if written[1].Timestamp != 2000 || !written[1].Price.Equal(decimal.NewFromInt(102)) {
		t.Errorf("expected existing entry to win on duplicate timestamp, got %+v", written[1])
	}
}

// TestUploadUsecase_Upload_AllDuplicates は全行重複時に書き込みが発生しないことをテストします。
func TestUploadUsecase_Upload_AllDuplicates(t *testing.T) {
	existing := []entity.Entry{
		entry(1000, "BTC", 101),
		entry(2000, "BTC", 102),
	}
	store := &mockEntryStore{
		ReadEntriesFunc: func(ctx context.Context, symbol string) ([]entity.Entry, error) {
			return existing, nil
		},
	}
	validator := &mockValidator{
		ReadAndValidateFunc: func(r io.Reader) ([]entity.Entry, error) {
			return []entity.Entry{entry(1000, "BTC", 101), entry(2000, "BTC", 102)}, nil
		},
	}

	uc := usecase.NewUploadUsecase(validator, store)
	result, err := uc.Upload(context.Background(), strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UploadStatus != usecase.StatusAllDuplicates {
		t.Errorf("expected status %q, got %q", usecase.StatusAllDuplicates, result.UploadStatus)
	}
	if result.RowsAdded != 0 {
		t.Errorf("expected 0 rows added, got %d", result.RowsAdded)
	}
	if store.WriteCalls != 0 {
		t.Errorf("expected no write, got %d write calls", store.WriteCalls)
	}
}

// TestUploadUsecase_Upload_ValidationError は検証失敗時にストアへ一切触れないことをテストします。
func TestUploadUsecase_Upload_ValidationError(t *testing.T) {
	verr := &domain.ValidationError{Row: 2, Reason: "timestamp \"abc\" is not a positive integer"}
	store := &mockEntryStore{}
	validator := &mockValidator{
		ReadAndValidateFunc: func(r io.Reader) ([]entity.Entry, error) { return nil, verr },
	}

	uc := usecase.NewUploadUsecase(validator, store)
	_, err := uc.Upload(context.Background(), strings.NewReader("ignored"))

	var got *domain.ValidationError
	if !errors.As(err, &got) {
		t.Fatalf("expected *domain.ValidationError, got %v", err)
	}
	if got.Row != 2 {
		t.Errorf("expected row 2, got %d", got.Row)
	}
	if store.WriteCalls != 0 {
		t.Errorf("expected no write, got %d write calls", store.WriteCalls)
	}
}

// TestUploadUsecase_Upload_WriteError は永続化失敗がErrUploadにラップされることをテストします。
func TestUploadUsecase_Upload_WriteError(t *testing.T) {
	store := &mockEntryStore{
		ReadEntriesFunc: func(ctx context.Context, symbol string) ([]entity.Entry, error) {
			return nil, domain.ErrCryptoNotFound
		},
		WriteEntriesFunc: func(ctx context.Context, symbol string, entries []entity.Entry) error {
			return ErrDisk
		},
	}
	validator := &mockValidator{
		ReadAndValidateFunc: func(r io.Reader) ([]entity.Entry, error) {
			return []entity.Entry{entry(1000, "BTC", 101)}, nil
		},
	}

	uc := usecase.NewUploadUsecase(validator, store)
	_, err := uc.Upload(context.Background(), strings.NewReader("ignored"))
	if !errors.Is(err, domain.ErrUpload) {
		t.Errorf("expected ErrUpload, got %v", err)
	}
}

// TestUploadUsecase_Upload_ReadError はNotFound以外の読み取り失敗がErrUploadになることをテストします。
func TestUploadUsecase_Upload_ReadError(t *testing.T) {
	store := &mockEntryStore{
		ReadEntriesFunc: func(ctx context.Context, symbol string) ([]entity.Entry, error) {
			return nil, ErrDisk
		},
	}
	validator := &mockValidator{
		ReadAndValidateFunc: func(r io.Reader) ([]entity.Entry, error) {
			return []entity.Entry{entry(1000, "btc", 101)}, nil
		},
	}

	uc := usecase.NewUploadUsecase(validator, store)
	_, err := uc.Upload(context.Background(), strings.NewReader("ignored"))
	if !errors.Is(err, domain.ErrUpload) {
		t.Errorf("expected ErrUpload, got %v", err)
	}
	if store.WriteCalls != 0 {
		t.Errorf("expected no write, got %d write calls", store.WriteCalls)
	}
}
