package sheets

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// sheetLayout is the prepared grid plus the row indexes that need styling.
type sheetLayout struct {
	values      [][]any
	sectionRows []int
}

func (l *sheetLayout) row(cells ...any) {
	l.values = append(l.values, cells)
}

func (l *sheetLayout) blank() {
	l.values = append(l.values, []any{})
}

// section starts a titled block and records its row for bold formatting.
func (l *sheetLayout) section(title string, extra ...any) {
	l.sectionRows = append(l.sectionRows, len(l.values))
	l.row(append([]any{title}, extra...)...)
}

// money converts a decimal into a number Sheets can format as currency.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

var decimal100 = decimal.NewFromInt(100)

func percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}
