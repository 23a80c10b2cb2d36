package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"

	"crypto_advisor/internal/feature/crypto/domain/entity"
)

// mockStatsService はテスト用のStatsServiceモック実装です。
type mockStatsService struct {
	statsFn   func(ctx context.Context, crypto string, from, to time.Time) (entity.CryptoStats, error)
	rangesFn  func(ctx context.Context) ([]entity.NormalizedRange, error)
	highestFn func(ctx context.Context, from, to time.Time) (entity.NormalizedRange, error)
}

func (m *mockStatsService) GetCryptoStatistics(ctx context.Context, crypto string, from, to time.Time) (entity.CryptoStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, crypto, from, to)
	}
	return entity.CryptoStats{}, nil
}

func (m *mockStatsService) GetAllNormalizedRanges(ctx context.Context) ([]entity.NormalizedRange, error) {
	if m.rangesFn != nil {
		return m.rangesFn(ctx)
	}
	return nil, nil
}

func (m *mockStatsService) GetHighestNormalizedRange(ctx context.Context, from, to time.Time) (entity.NormalizedRange, error) {
	if m.highestFn != nil {
		return m.highestFn(ctx, from, to)
	}
	return entity.NormalizedRange{}, nil
}

func testStats() entity.CryptoStats {
	return entity.CryptoStats{
		Symbol: "BTC",
		Min:    decimal.RequireFromString("33276.59"),
		Max:    decimal.RequireFromString("47722.66"),
		Oldest: decimal.RequireFromString("46813.21"),
		Newest: decimal.RequireFromString("38415.79"),
	}
}

func testNormalizedRange() entity.NormalizedRange {
	return entity.NormalizedRange{
		Symbol:          "BTC",
		NormalizedValue: decimal.RequireFromString("0.43412"),
		DateFrom:        time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:          time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

// TestCachingStatsService_GetCryptoStatistics_CacheMiss は期間付きキーでのメモ化を検証します。
func TestCachingStatsService_GetCryptoStatistics_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	want := testStats()
	wantJSON, _ := json.Marshal(want)

	from := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC)
	key := "crypto:stats:BTC:2022-01-01:2022-01-31"

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, wantJSON, 5*time.Minute).SetVal("OK")

	inner := &mockStatsService{
		statsFn: func(ctx context.Context, crypto string, from, to time.Time) (entity.CryptoStats, error) {
			return want, nil
		},
	}

	svc := NewCachingStatsService(rdb, 5*time.Minute, inner, "crypto")
	got, err := svc.GetCryptoStatistics(context.Background(), "btc", from, to) // キーは大文字化される
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "BTC" {
		t.Errorf("expected symbol BTC, got %q", got.Symbol)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingStatsService_GetCryptoStatistics_ZeroWindow はゼロ値の期間境界が "all" として
// キーに刻まれることを検証します。
func TestCachingStatsService_GetCryptoStatistics_ZeroWindow(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	want := testStats()
	wantJSON, _ := json.Marshal(want)
	key := "crypto:stats:BTC:all:all"

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, wantJSON, 5*time.Minute).SetVal("OK")

	inner := &mockStatsService{
		statsFn: func(ctx context.Context, crypto string, from, to time.Time) (entity.CryptoStats, error) {
			return want, nil
		},
	}

	svc := NewCachingStatsService(rdb, 5*time.Minute, inner, "crypto")
	if _, err := svc.GetCryptoStatistics(context.Background(), "BTC", time.Time{}, time.Time{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingStatsService_GetAllNormalizedRanges_CacheHit はキャッシュヒット時に内部サービスを呼ばないことを検証します。
func TestCachingStatsService_GetAllNormalizedRanges_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	cached := []entity.NormalizedRange{testNormalizedRange()}
	cachedJSON, _ := json.Marshal(cached)
	mock.ExpectGet("crypto:ranges:all").SetVal(string(cachedJSON))

	innerCalled := false
	inner := &mockStatsService{
		rangesFn: func(ctx context.Context) ([]entity.NormalizedRange, error) {
			innerCalled = true
			return nil, nil
		},
	}

	svc := NewCachingStatsService(rdb, 5*time.Minute, inner, "crypto")
	got, err := svc.GetAllNormalizedRanges(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if innerCalled {
		t.Error("inner service should not be called on cache hit")
	}
	if len(got) != 1 {
		t.Errorf("expected 1 range, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingStatsService_GetHighestNormalizedRange_CacheMiss は期間付きキーでのメモ化を検証します。
func TestCachingStatsService_GetHighestNormalizedRange_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	want := testNormalizedRange()
	wantJSON, _ := json.Marshal(want)

	from := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC)
	key := "crypto:highest:2022-01-01:2022-01-31"

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, wantJSON, 5*time.Minute).SetVal("OK")

	inner := &mockStatsService{
		highestFn: func(ctx context.Context, from, to time.Time) (entity.NormalizedRange, error) {
			return want, nil
		},
	}

	svc := NewCachingStatsService(rdb, 5*time.Minute, inner, "crypto")
	got, err := svc.GetHighestNormalizedRange(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "BTC" {
		t.Errorf("expected symbol BTC, got %q", got.Symbol)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingStatsService_ErrorsNotCached はエラーがキャッシュされないことを検証します。
func TestCachingStatsService_ErrorsNotCached(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("crypto:ranges:all").RedisNil()
	// Setの期待を設定しない: エラー時にSetが呼ばれればExpectationsWereMetで検出される

	wantErr := errors.New("store unavailable")
	inner := &mockStatsService{
		rangesFn: func(ctx context.Context) ([]entity.NormalizedRange, error) {
			return nil, wantErr
		},
	}

	svc := NewCachingStatsService(rdb, 5*time.Minute, inner, "crypto")
	if _, err := svc.GetAllNormalizedRanges(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("expected inner error to propagate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestCachingStatsService_NilRedis はRedisがnilの場合にキャッシュをバイパスすることを検証します。
func TestCachingStatsService_NilRedis(t *testing.T) {
	t.Parallel()

	want := testNormalizedRange()
	inner := &mockStatsService{
		highestFn: func(ctx context.Context, from, to time.Time) (entity.NormalizedRange, error) {
			return want, nil
		},
	}

	svc := NewCachingStatsService(nil, 5*time.Minute, inner, "crypto")
	got, err := svc.GetHighestNormalizedRange(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != want.Symbol {
		t.Errorf("expected %q, got %q", want.Symbol, got.Symbol)
	}
}
