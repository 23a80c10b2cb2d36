// Package csvstore は銘柄ごとに1つのCSVファイルを持つデータストアを実装します。
package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"crypto_advisor/internal/feature/crypto/domain"
	"crypto_advisor/internal/feature/crypto/domain/entity"
	"crypto_advisor/internal/feature/crypto/usecase"
)

// StoreがEntryStoreを実装していることをコンパイル時に検証します。
var _ usecase.EntryStore = (*Store)(nil)

const (
	// ValuesSuffix はデータセットファイル名の共通サフィックスです。
	ValuesSuffix = "_values.csv"
	header       = "timestamp,symbol,price"
)

// Store は設定されたディレクトリ配下の <SYMBOL>_values.csv 群を管理します。
// 書き込みは一時ファイル+リネームで行い、読み手が書きかけのファイルを
// 観測することはありません。
type Store struct {
	dir string
}

// NewStore は指定されたディレクトリでStoreの新しいインスタンスを生成します。
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// ListSymbols はデータセットファイルが存在する銘柄の一覧を
// アルファベット順で返します。
func (s *Store) ListSymbols(ctx context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory %s: %w", s.dir, err)
	}
	symbols := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ValuesSuffix) {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, ValuesSuffix))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ReadEntries は指定銘柄の全エントリをタイムスタンプ昇順で返します。
// データセットファイルが存在しない場合は domain.ErrCryptoNotFound を返します。
func (s *Store) ReadEntries(ctx context.Context, symbol string) ([]entity.Entry, error) {
	f, err := os.Open(s.filePath(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCryptoNotFound, symbol)
		}
		return nil, fmt.Errorf("opening dataset for %s: %w", symbol, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	// ヘッダー行を読み飛ばす
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading dataset header for %s: %w", symbol, err)
	}

	var entries []entity.Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset row for %s: %w", symbol, err)
		}
		millis, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt timestamp %q in dataset for %s: %w", record[0], symbol, err)
		}
		price, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("corrupt price %q in dataset for %s: %w", record[2], symbol, err)
		}
		entries = append(entries, entity.NewEntry(millis, record[1], price))
	}
	return entries, nil
}

// WriteEntries は指定銘柄のデータセットファイルをアトミックに置き換えます。
// 同一ディレクトリ内の一時ファイルに書き切ってからリネームするため、
// 書き込みが途中で失敗しても以前のファイルは失われません。
func (s *Store) WriteEntries(ctx context.Context, symbol string, entries []entity.Entry) error {
	tmp, err := os.CreateTemp(s.dir, strings.ToUpper(symbol)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp dataset for %s: %w", symbol, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // リネーム成功後は no-op

	if err := writeDataset(tmp, entries); err != nil {
		tmp.Close()
		return fmt.Errorf("writing dataset for %s: %w", symbol, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp dataset for %s: %w", symbol, err)
	}
	if err := os.Rename(tmpName, s.filePath(symbol)); err != nil {
		return fmt.Errorf("replacing dataset for %s: %w", symbol, err)
	}
	return nil
}

// filePath はデータセットファイルのパスを返します。ファイル名の銘柄部分は
// 常に大文字です。
func (s *Store) filePath(symbol string) string {
	return filepath.Join(s.dir, strings.ToUpper(symbol)+ValuesSuffix)
}

func writeDataset(w io.Writer, entries []entity.Entry) error {
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%d,%s,%s\n", e.Timestamp, e.Symbol, e.Price.String()); err != nil {
			return err
		}
	}
	return nil
}
