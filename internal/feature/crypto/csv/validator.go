// Package csv はアップロードされた価格CSVの読み取りと検証を実装します。
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"crypto_advisor/internal/feature/crypto/domain"
	"crypto_advisor/internal/feature/crypto/domain/entity"
)

var (
	timestampPattern = regexp.MustCompile(`^\d+$`)
	pricePattern     = regexp.MustCompile(`^\d+(\.\d*)?$`)
)

// requiredColumns はヘッダー行に（大文字小文字を問わず、順不同で）
// 含まれていなければならない列名です。
var requiredColumns = []string{"timestamp", "symbol", "price"}

// Validator は生のCSVストリームを検証済みEntryの列に変換します。
// 最初の違反で即座に失敗します（fail-fast、部分的な成功はありません）。
type Validator struct {
	now func() time.Time
}

// NewValidator はValidatorの新しいインスタンスを生成します。
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// ReadAndValidate はCSVを読み取り、全ての行が制約を満たす場合のみ
// Entryの列を返します。制約:
//   - ヘッダー行に timestamp, symbol, price の列名が含まれること
//   - 全データ行がちょうど3列であること
//   - 1列目がエポックミリ秒で、検証時点より過去であること
//   - 2列目のシンボルがファイル内で一貫していること
//   - 3列目が ^\d+(\.\d*)? にマッチする数値であること
//
// 違反時は違反行の情報を持つ *domain.ValidationError を返します。
func (v *Validator) ReadAndValidate(r io.Reader) ([]entity.Entry, error) {
	reader := csv.NewReader(r)
	// 列数は行ごとに自前で検証し、行番号付きのエラーを返す
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &domain.ValidationError{Row: 0, Reason: "missing header row"}
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var (
		entries []entity.Entry
		symbol  string
		now     = v.now()
	)
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.ValidationError{Row: row, Reason: fmt.Sprintf("unreadable row: %v", err)}
		}
		if len(record) != 3 {
			return nil, &domain.ValidationError{Row: row, Reason: fmt.Sprintf("expected 3 columns, got %d", len(record))}
		}

		rawTimestamp, rawSymbol, rawPrice := record[0], record[1], record[2]

		if !timestampPattern.MatchString(rawTimestamp) {
			return nil, &domain.ValidationError{Row: row, Reason: fmt.Sprintf("timestamp %q is not a positive integer", rawTimestamp)}
		}
		millis, err := strconv.ParseInt(rawTimestamp, 10, 64)
		if err != nil {
			return nil, &domain.ValidationError{Row: row, Reason: fmt.Sprintf("timestamp %q out of range", rawTimestamp)}
		}
		// 未来のデータは受け付けない
		if !time.UnixMilli(millis).Before(now) {
			return nil, &domain.ValidationError{Row: row, Reason: fmt.Sprintf("timestamp %q is not in the past", rawTimestamp)}
		}

		if rawSymbol == "" {
			return nil, &domain.ValidationError{Row: row, Reason: "empty symbol"}
		}
		// 1つのファイルは1銘柄のみを記述できる。最初のデータ行がシンボルを確定する。
		if symbol == "" {
			symbol = rawSymbol
		} else if rawSymbol != symbol {
			return nil, &domain.ValidationError{Row: row, Reason: fmt.Sprintf("symbol %q differs from %q established by first row", rawSymbol, symbol)}
		}

		if !pricePattern.MatchString(rawPrice) {
			return nil, &domain.ValidationError{Row: row, Reason: fmt.Sprintf("price %q is not a non-negative decimal", rawPrice)}
		}
		price, err := decimal.NewFromString(rawPrice)
		if err != nil {
			return nil, &domain.ValidationError{Row: row, Reason: fmt.Sprintf("price %q is not parseable", rawPrice)}
		}

		entries = append(entries, entity.NewEntry(millis, rawSymbol, price))
	}

	if len(entries) == 0 {
		return nil, &domain.ValidationError{Row: 1, Reason: "file contains no data rows"}
	}
	return entries, nil
}

// checkHeader はヘッダー行に必須の列名が全て含まれるかを検証します。
// 列の順序は問わず、大文字小文字も区別しません。
func checkHeader(header []string) error {
	seen := make(map[string]struct{}, len(header))
	for _, col := range header {
		seen[normalize(col)] = struct{}{}
	}
	for _, want := range requiredColumns {
		if _, ok := seen[want]; !ok {
			return &domain.ValidationError{Row: 0, Reason: fmt.Sprintf("header mismatch: missing column %q", want)}
		}
	}
	return nil
}

func normalize(col string) string {
	col = strings.TrimPrefix(col, "\ufeff") // Excel由来のBOMを除去
	return strings.ToLower(strings.TrimSpace(col))
}
