// Package supplier reads the current stock listing from the FLAM supplier system.
package supplier

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
)

// Export column headers.
const (
	ColSKU      = "商品コード"
	ColOnHand   = "現在在庫数"
	ColIncoming = "入庫予定数"
	ColOutgoing = "出庫予定数"
	ColSellable = "販売可能数"
)

var requiredColumns = []string{ColSKU, ColOnHand, ColIncoming, ColOutgoing, ColSellable}

var numberCleaner = strings.NewReplacer(",", "", " ", "", "　", "")

// ParseQuantity reads a supplier number such as "1,234", " 5 " or "3.0".
func ParseQuantity(s string) (decimal.Decimal, error) {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, errors.New("empty quantity")
	}
	return decimal.NewFromString(s)
}

// DeriveQuantity picks the number to publish: on-hand stock when nothing is
// pending in either direction, otherwise the sellable figure. The result is
// rounded half to even and never negative.
func DeriveQuantity(onHand, incoming, outgoing, sellable decimal.Decimal) int64 {
	q := sellable
	if incoming.Equal(outgoing) {
		q = onHand
	}
	q = q.RoundBank(0)
	if q.IsNegative() {
		return 0
	}
	return q.IntPart()
}

// decodeExport returns a UTF-8 reader; exports arrive as Shift_JIS (cp932)
// unless they already are valid UTF-8.
func decodeExport(data []byte) io.Reader {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return bytes.NewReader(data)
	}
	return transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
}

// ParseExport turns a stock export CSV into records. Rows without a SKU or
// with unreadable numbers are logged and skipped. A SKU that appears twice
// keeps its first row.
func ParseExport(r io.Reader) ([]model.StockRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	cr := csv.NewReader(decodeExport(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read export header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("export missing column %q", c)
		}
	}

	var out []model.StockRecord
	seen := make(map[string]struct{})
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read export line %d: %w", line, err)
		}
		field := func(col string) string {
			if i := idx[col]; i < len(row) {
				return row[i]
			}
			return ""
		}
		sku := strings.TrimSpace(field(ColSKU))
		if sku == "" {
			continue
		}
		if _, dup := seen[sku]; dup {
			obs.Logger.Warn("supplier_duplicate_sku", "sku", sku, "line", line)
			continue
		}
		rec, err := recordFrom(sku, field)
		if err != nil {
			obs.Logger.Error("supplier_row_invalid", "sku", sku, "line", line, "error", err)
			continue
		}
		seen[sku] = struct{}{}
		out = append(out, rec)
	}
	return out, nil
}

func recordFrom(sku string, field func(string) string) (model.StockRecord, error) {
	var vals [4]decimal.Decimal
	for i, col := range []string{ColOnHand, ColIncoming, ColOutgoing, ColSellable} {
		d, err := ParseQuantity(field(col))
		if err != nil {
			return model.StockRecord{}, fmt.Errorf("%s: %w", col, err)
		}
		vals[i] = d
	}
	return model.StockRecord{
		SKU:      sku,
		Quantity: DeriveQuantity(vals[0], vals[1], vals[2], vals[3]),
		OnHand:   vals[0],
		Incoming: vals[1],
		Outgoing: vals[2],
		Sellable: vals[3],
	}, nil
}
