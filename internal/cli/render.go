package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/report"
)

// Format selects how results are printed.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table or json)", s)
}

// Renderer prints ledger records and reports.
type Renderer struct {
	w      io.Writer
	format Format
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format}
}

// Table renders rows under headers; columns listed in numeric are right aligned.
func Table(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := TableCellStyle
			if row == table.HeaderRow {
				style = TableHeaderStyle
			}
			if right[col] {
				style = style.Align(lipgloss.Right)
			}
			return style
		}).
		String()
}

func (r *Renderer) emit(rendered, empty string, v any, n int) error {
	if r.format == FormatJSON {
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if n == 0 {
		_, err := fmt.Fprintln(r.w, SubtleStyle.Render(empty))
		return err
	}
	_, err := fmt.Fprintln(r.w, rendered)
	return err
}

type totalJSON struct {
	Period string          `json:"period"`
	Start  string          `json:"start"`
	Type   string          `json:"type"`
	Total  decimal.Decimal `json:"total"`
}

// Totals prints time-bucketed totals. The table ends with one total per type.
func (r *Renderer) Totals(rows []report.TotalRow) error {
	out := make([]totalJSON, 0, len(rows))
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, totalJSON{
			Period: row.Bucket.Label,
			Start:  row.Bucket.Start.Format(model.DateLayout),
			Type:   row.Type.String(),
			Total:  row.Total,
		})
		cells = append(cells, []string{row.Bucket.Label, row.Type.String(), FormatMoney(row.Total)})
	}

	sums := report.SumByType(rows)
	for _, typ := range model.TransactionTypes {
		if sum, ok := sums[typ]; ok {
			cells = append(cells, []string{BoldStyle.Render("Total"), typ.String(), BoldStyle.Render(FormatMoney(sum))})
		}
	}
	return r.emit(Table([]string{"Period", "Type", "Total"}, cells, 2), "No transactions in range.", out, len(rows))
}

type breakdownJSON struct {
	Category   string          `json:"category"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
	CategoryID int64           `json:"category_id"`
}

// Breakdown prints per-category totals.
func (r *Renderer) Breakdown(rows []report.CategoryTotal) error {
	var sum decimal.Decimal
	for _, row := range rows {
		sum = sum.Add(row.Total)
	}

	out := make([]breakdownJSON, 0, len(rows))
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, breakdownJSON{Category: row.Name, Color: row.ColorTag, Total: row.Total, CategoryID: row.CategoryID})
		share := "0.0%"
		if sum.IsPositive() {
			share = row.Total.Div(sum).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
		}
		cells = append(cells, []string{Swatch(row.ColorTag) + " " + row.Name, FormatMoney(row.Total), share})
	}
	return r.emit(Table([]string{"Category", "Total", "Share"}, cells, 1, 2), "No categorized transactions in range.", out, len(rows))
}

type budgetJSON struct {
	Category   string          `json:"category"`
	Budget     decimal.Decimal `json:"budget"`
	Actual     decimal.Decimal `json:"actual"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
	BudgetID   int64           `json:"budget_id"`
}

// BudgetStatus prints budget status rows.
func (r *Renderer) BudgetStatus(rows []report.BudgetStatus) error {
	out := make([]budgetJSON, 0, len(rows))
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, budgetJSON{
			Category:   row.CategoryName,
			Budget:     row.Budget,
			Actual:     row.Actual,
			Remaining:  row.Remaining,
			Percentage: row.Percentage,
			BudgetID:   row.BudgetID,
		})
		used := fmt.Sprintf("%.1f%%", row.Percentage)
		if row.OverBudget() {
			used = ErrorStyle.Render(used)
		}
		cells = append(cells, []string{
			Swatch(row.ColorTag) + " " + row.CategoryName,
			FormatMoney(row.Budget),
			FormatMoney(row.Actual),
			FormatMoney(row.Remaining),
			used,
		})
	}
	return r.emit(Table([]string{"Category", "Budget", "Actual", "Remaining", "Used"}, cells, 1, 2, 3, 4),
		"No budgets for this month.", out, len(rows))
}

type seriesJSON struct {
	Period  string          `json:"period"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Series prints the income-vs-expense series.
func (r *Renderer) Series(points []report.SeriesPoint) error {
	out := make([]seriesJSON, 0, len(points))
	cells := make([][]string, 0, len(points))
	for _, p := range points {
		out = append(out, seriesJSON{Period: p.Label(), Income: p.Income, Expense: p.Expense, Net: p.Net()})
		cells = append(cells, []string{p.Label(), FormatMoney(p.Income), FormatMoney(p.Expense), FormatMoney(p.Net())})
	}
	return r.emit(Table([]string{"Period", "Income", "Expenses", "Net"}, cells, 1, 2, 3), "No transactions in range.", out, len(points))
}

type summaryJSON struct {
	Start            string          `json:"start"`
	End              string          `json:"end"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	TotalTransfer    decimal.Decimal `json:"total_transfer"`
	Net              decimal.Decimal `json:"net"`
	SavingsRate      float64         `json:"savings_rate"`
	TransactionCount int             `json:"transaction_count"`
}

// Summary prints a period summary.
func (r *Renderer) Summary(s report.Summary) error {
	if r.format == FormatJSON {
		return r.emit("", "", summaryJSON{
			Start:            s.Range.Start.Format(model.DateLayout),
			End:              s.Range.End.Format(model.DateLayout),
			TotalIncome:      s.TotalIncome,
			TotalExpense:     s.TotalExpense,
			TotalTransfer:    s.TotalTransfer,
			Net:              s.Net,
			SavingsRate:      s.SavingsRate,
			TransactionCount: s.TransactionCount,
		}, 1)
	}

	body := fmt.Sprintf("Income:        %s\nExpenses:      %s\nTransfers:     %s\nNet:           %s\nSavings rate:  %.1f%%\nTransactions:  %d",
		FormatMoney(s.TotalIncome), FormatMoney(s.TotalExpense), FormatMoney(s.TotalTransfer),
		FormatMoney(s.Net), s.SavingsRate, s.TransactionCount)
	_, err := fmt.Fprintln(r.w, RenderBox(ChartIcon+" "+s.Range.String(), body))
	return err
}

type categoryJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

// Categories prints categories.
func (r *Renderer) Categories(cats []model.Category) error {
	out := make([]categoryJSON, 0, len(cats))
	cells := make([][]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Type: c.Type.String(), Color: c.ColorTag})
		cells = append(cells, []string{strconv.FormatInt(c.ID, 10), Swatch(c.ColorTag) + " " + c.Name, c.Type.String(), c.ColorTag})
	}
	return r.emit(Table([]string{"ID", "Name", "Type", "Color"}, cells, 0), "No categories.", out, len(cats))
}

type transactionJSON struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Transactions prints transactions, naming categories from names.
func (r *Renderer) Transactions(txns []model.Transaction, names map[int64]string) error {
	out := make([]transactionJSON, 0, len(txns))
	cells := make([][]string, 0, len(txns))
	for _, t := range txns {
		category := ""
		if t.CategoryID != nil {
			category = names[*t.CategoryID]
		}
		out = append(out, transactionJSON{
			ID:          t.ID,
			Date:        t.Date.Format(model.DateLayout),
			Type:        t.Type.String(),
			Amount:      t.Amount,
			Category:    category,
			Description: t.Description,
		})
		cells = append(cells, []string{
			strconv.FormatInt(t.ID, 10),
			t.Date.Format(model.DateLayout),
			t.Type.String(),
			FormatMoney(t.Amount),
			category,
			t.Description,
		})
	}
	return r.emit(Table([]string{"ID", "Date", "Type", "Amount", "Category", "Description"}, cells, 0, 3),
		"No transactions.", out, len(txns))
}

type budgetRowJSON struct {
	ID       int64           `json:"id"`
	Category string          `json:"category"`
	Month    string          `json:"month"`
	Amount   decimal.Decimal `json:"amount"`
}

// Budgets prints stored budgets, naming categories from names.
func (r *Renderer) Budgets(budgets []model.Budget, names map[int64]string) error {
	out := make([]budgetRowJSON, 0, len(budgets))
	cells := make([][]string, 0, len(budgets))
	for _, b := range budgets {
		month := b.Period().Format("2006-01")
		out = append(out, budgetRowJSON{ID: b.ID, Category: names[b.CategoryID], Month: month, Amount: b.Amount})
		cells = append(cells, []string{strconv.FormatInt(b.ID, 10), names[b.CategoryID], month, FormatMoney(b.Amount)})
	}
	return r.emit(Table([]string{"ID", "Category", "Month", "Amount"}, cells, 0, 3), "No budgets.", out, len(budgets))
}

type ruleRowJSON struct {
	Type     *model.TransactionType `json:"type,omitempty"`
	Name     string                 `json:"name"`
	Pattern  string                 `json:"pattern"`
	Amount   string                 `json:"amount"`
	Category string                 `json:"category"`
	ID       int64                  `json:"id"`
	Priority int                    `json:"priority"`
	UseCount int                    `json:"use_count"`
	IsRegex  bool                   `json:"is_regex"`
}

// Rules prints category rules, naming categories from names.
func (r *Renderer) Rules(rules []model.CategoryRule, names map[int64]string) error {
	out := make([]ruleRowJSON, 0, len(rules))
	cells := make([][]string, 0, len(rules))
	for _, rule := range rules {
		amount := DescribeAmountCondition(rule)
		out = append(out, ruleRowJSON{
			ID: rule.ID, Name: rule.Name, Pattern: rule.Pattern, IsRegex: rule.IsRegex, Type: rule.Type,
			Amount: amount, Category: names[rule.CategoryID], Priority: rule.Priority, UseCount: rule.UseCount,
		})

		pattern := rule.Pattern
		switch {
		case pattern == "":
			pattern = "*"
		case rule.IsRegex:
			pattern = "/" + pattern + "/"
		}
		cells = append(cells, []string{
			strconv.FormatInt(rule.ID, 10), rule.Name, pattern, amount, names[rule.CategoryID],
			strconv.Itoa(rule.Priority), strconv.Itoa(rule.UseCount),
		})
	}
	return r.emit(Table([]string{"ID", "Name", "Pattern", "Amount", "Category", "Priority", "Used"}, cells, 0, 5, 6),
		"No rules.", out, len(rules))
}

// DescribeAmountCondition renders a rule's amount test, e.g. "< $50.00".
func DescribeAmountCondition(rule model.CategoryRule) string {
	value := func(d *decimal.Decimal) string {
		if d == nil {
			return "?"
		}
		return FormatMoney(*d)
	}

	switch rule.AmountCondition {
	case model.AmountLessThan:
		return "< " + value(rule.AmountValue)
	case model.AmountLessEqual:
		return "<= " + value(rule.AmountValue)
	case model.AmountEqual:
		return "= " + value(rule.AmountValue)
	case model.AmountGreaterEqual:
		return ">= " + value(rule.AmountValue)
	case model.AmountGreaterThan:
		return "> " + value(rule.AmountValue)
	case model.AmountRange:
		switch {
		case rule.AmountMin == nil:
			return "<= " + value(rule.AmountMax)
		case rule.AmountMax == nil:
			return ">= " + value(rule.AmountMin)
		}
		return value(rule.AmountMin) + " to " + value(rule.AmountMax)
	}
	return "any"
}
