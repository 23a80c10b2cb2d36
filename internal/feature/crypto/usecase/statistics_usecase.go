package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"crypto_advisor/internal/feature/crypto/domain"
	"crypto_advisor/internal/feature/crypto/domain/entity"
)

// normalizedScale は正規化レンジの小数点以下桁数です。丸めは四捨五入
// （round half-up）で行います。
const normalizedScale = 5

// firstCryptoDate はドメイン上あり得る最古のデータ日付です。期間指定の
// ない「全期間」クエリの下限として使います。
var firstCryptoDate = time.Date(2015, time.November, 20, 0, 0, 0, 0, time.UTC)

// StatisticsUsecase は銘柄ごとの統計値と正規化レンジを計算します。
// EntryStore経由の読み取り専用コンシューマーで、データを変更することは
// ありません。
type StatisticsUsecase struct {
	store EntryStore
	now   func() time.Time
}

// NewStatisticsUsecase はStatisticsUsecaseの新しいインスタンスを生成します。
func NewStatisticsUsecase(store EntryStore) *StatisticsUsecase {
	return &StatisticsUsecase{store: store, now: time.Now}
}

// GetCryptoStatistics は指定銘柄の期間内の最小・最大・最古・最新価格を
// 返します。from / to がゼロ値の場合は [firstCryptoDate, 今日] が期間に
// なります。銘柄が未知の場合は domain.ErrCryptoNotFound、期間内にデータが
// 無い場合は domain.ErrNoDataInRange を返します。
func (su *StatisticsUsecase) GetCryptoStatistics(ctx context.Context, crypto string, from, to time.Time) (entity.CryptoStats, error) {
	from, to = su.normalizeWindow(from, to)
	window, err := su.windowEntries(ctx, crypto, from, to)
	if err != nil {
		return entity.CryptoStats{}, err
	}
	agg := aggregate(window)
	return entity.CryptoStats{
		Symbol: strings.ToUpper(crypto),
		Min:    agg.min.Price,
		Max:    agg.max.Price,
		Oldest: agg.oldest.Price,
		Newest: agg.newest.Price,
	}, nil
}

// GetAllNormalizedRanges は既知の全銘柄の正規化レンジを全期間で計算し、
// 値の降順（同値はシンボルの昇順）で返します。期間内にデータを持たない
// 銘柄は結果から除外されます。
func (su *StatisticsUsecase) GetAllNormalizedRanges(ctx context.Context) ([]entity.NormalizedRange, error) {
	from, to := su.normalizeWindow(time.Time{}, time.Time{})
	return su.rankSymbols(ctx, from, to)
}

// GetHighestNormalizedRange は指定期間で最大の正規化レンジを持つ銘柄を
// 返します。期間そのものが不正な場合（dateToがdateFromより前、または
// dateFromが未来）は domain.ErrInvalidDateRange、どの銘柄にもデータが
// 無い場合は domain.ErrNoDataInRange を返します。
func (su *StatisticsUsecase) GetHighestNormalizedRange(ctx context.Context, from, to time.Time) (entity.NormalizedRange, error) {
	if to.Before(from) || from.After(su.today()) {
		return entity.NormalizedRange{}, fmt.Errorf("%w: from %s to %s",
			domain.ErrInvalidDateRange, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	ranked, err := su.rankSymbols(ctx, from, to)
	if err != nil {
		return entity.NormalizedRange{}, err
	}
	if len(ranked) == 0 {
		return entity.NormalizedRange{}, fmt.Errorf("%w: no crypto has data from %s to %s",
			domain.ErrNoDataInRange, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return ranked[0], nil
}

// rankSymbols は全銘柄の正規化レンジを計算し、値の降順で並べます。
func (su *StatisticsUsecase) rankSymbols(ctx context.Context, from, to time.Time) ([]entity.NormalizedRange, error) {
	symbols, err := su.store.ListSymbols(ctx)
	if err != nil {
		return nil, err
	}
	ranges := make([]entity.NormalizedRange, 0, len(symbols))
	for _, symbol := range symbols {
		nr, err := su.normalizedRange(ctx, symbol, from, to)
		if err != nil {
			// 期間内にデータの無い銘柄はランキングから外すだけで、
			// クエリ全体は失敗させない
			if isNoData(err) {
				continue
			}
			return nil, err
		}
		ranges = append(ranges, nr)
	}
	sort.Slice(ranges, func(i, j int) bool {
		if c := ranges[i].NormalizedValue.Cmp(ranges[j].NormalizedValue); c != 0 {
			return c > 0
		}
		return ranges[i].Symbol < ranges[j].Symbol
	})
	return ranges, nil
}

// normalizedRange は1銘柄の正規化レンジ (max-min)/min を計算します。
// 結果のDateFrom/DateToは期間内に実在した最古・最新エントリの日付です。
func (su *StatisticsUsecase) normalizedRange(ctx context.Context, crypto string, from, to time.Time) (entity.NormalizedRange, error) {
	window, err := su.windowEntries(ctx, crypto, from, to)
	if err != nil {
		return entity.NormalizedRange{}, err
	}
	agg := aggregate(window)
	if agg.min.Price.IsZero() {
		// 最小価格が0だと正規化レンジは定義できない
		return entity.NormalizedRange{}, fmt.Errorf("%w: zero minimum price for %s", domain.ErrNoDataInRange, crypto)
	}
	value := agg.max.Price.Sub(agg.min.Price).DivRound(agg.min.Price, normalizedScale)
	return entity.NormalizedRange{
		Symbol:          strings.ToUpper(crypto),
		NormalizedValue: value,
		DateFrom:        agg.oldest.Date,
		DateTo:          agg.newest.Date,
	}, nil
}

// windowEntries は銘柄のエントリを読み、[from, to] の両端を含む期間で
// フィルタします。
func (su *StatisticsUsecase) windowEntries(ctx context.Context, crypto string, from, to time.Time) ([]entity.Entry, error) {
	entries, err := su.store.ReadEntries(ctx, strings.ToUpper(crypto))
	if err != nil {
		return nil, err
	}
	window := make([]entity.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		window = append(window, e)
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: %s from %s to %s", domain.ErrNoDataInRange,
			strings.ToUpper(crypto), from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return window, nil
}

// normalizeWindow はゼロ値の期間境界をデフォルト値に置き換えます。
func (su *StatisticsUsecase) normalizeWindow(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = firstCryptoDate
	}
	if to.IsZero() {
		to = su.today()
	}
	return from, to
}

func (su *StatisticsUsecase) today() time.Time {
	n := su.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

type extrema struct {
	min, max, oldest, newest entity.Entry
}

// aggregate は期間内エントリの極値を1回の走査で求めます。
// 同価格のタイの場合はタイムスタンプが最小のエントリが勝ちます
// （テストの再現性のための決定的な選択）。
func aggregate(window []entity.Entry) extrema {
	agg := extrema{min: window[0], max: window[0], oldest: window[0], newest: window[0]}
	for _, e := range window[1:] {
		if e.Price.Cmp(agg.min.Price) < 0 || (e.Price.Cmp(agg.min.Price) == 0 && e.Timestamp < agg.min.Timestamp) {
			agg.min = e
		}
		if e.Price.Cmp(agg.max.Price) > 0 || (e.Price.Cmp(agg.max.Price) == 0 && e.Timestamp < agg.max.Timestamp) {
			agg.max = e
		}
		if e.Timestamp < agg.oldest.Timestamp {
			agg.oldest = e
		}
		if e.Timestamp > agg.newest.Timestamp {
			agg.newest = e
		}
	}
	return agg
}

func isNoData(err error) bool {
	return errors.Is(err, domain.ErrNoDataInRange) || errors.Is(err, domain.ErrCryptoNotFound)
}
