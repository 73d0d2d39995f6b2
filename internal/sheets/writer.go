package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/service"
)

const reportColumns = 5

// Writer implements service.ReportWriter for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a Google Sheets report writer. Client options replace the
// configured authentication when given.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger, opts ...option.ClientOption) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	if len(opts) == 0 {
		client, err := authenticatedClient(ctx, config)
		if err != nil {
			return nil, err
		}
		opts = []option.ClientOption{option.WithHTTPClient(client)}
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: srv,
		logger:  logger,
	}, nil
}

// Write publishes the report, replacing the previous contents of the report tab.
func (w *Writer) Write(ctx context.Context, data *service.ExportData) error {
	if data == nil {
		return fmt.Errorf("%w: nothing to export", common.ErrValidation)
	}

	w.logger.Info("starting report export",
		"start", data.Start.Format("2006-01-02"),
		"end", data.End.Format("2006-01-02"))

	retryOpts := func(op string) service.RetryOptions {
		return service.RetryOptions{
			Operation:    op,
			MaxAttempts:  max(w.config.RetryAttempts, 1),
			InitialDelay: w.config.RetryDelay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		}
	}

	var spreadsheetID string
	var sheetID int64
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheetID, sheetID, err = w.prepareSheet(ctx)
		return classify(err)
	}, retryOpts("sheets.prepare"))
	if err != nil {
		return fmt.Errorf("failed to prepare spreadsheet: %w", err)
	}

	if clearErr := common.WithRetry(ctx, func() error {
		return classify(w.clearSheet(ctx, spreadsheetID))
	}, retryOpts("sheets.clear")); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	layout := prepareReportData(data)

	for start := 0; start < len(layout.values); start += w.config.BatchSize {
		end := min(start+w.config.BatchSize, len(layout.values))
		err = common.WithRetry(ctx, func() error {
			return classify(w.writeBatch(ctx, spreadsheetID, start, layout.values[start:end]))
		}, retryOpts("sheets.write"))
		if err != nil {
			return fmt.Errorf("failed to write rows %d-%d: %w", start+1, end, err)
		}
		w.logger.Debug("wrote batch", "start_row", start+1, "rows", end-start)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classify(w.applyFormatting(ctx, spreadsheetID, sheetID, layout))
		}, retryOpts("sheets.format"))
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(layout.values))

	return nil
}

// SpreadsheetID returns the target spreadsheet, which is set after the first
// Write when the writer had to create one.
func (w *Writer) SpreadsheetID() string {
	return w.config.SpreadsheetID
}

// authenticatedClient builds an HTTP client from a service account key or an
// OAuth2 refresh token.
func authenticatedClient(ctx context.Context, config Config) (*http.Client, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token)
	}

	return oauth2.NewClient(ctx, tokenSource), nil
}

// prepareSheet resolves the spreadsheet and the id of the report tab, creating either when missing.
func (w *Writer) prepareSheet(ctx context.Context) (string, int64, error) {
	if w.config.SpreadsheetID == "" {
		created, err := w.service.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}},
			},
		}).Context(ctx).Do()
		if err != nil {
			return "", 0, fmt.Errorf("unable to create spreadsheet: %w", err)
		}

		w.logger.Info("created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)

		// Later calls reuse the new spreadsheet instead of creating another.
		w.config.SpreadsheetID = created.SpreadsheetId
		return created.SpreadsheetId, sheetIDByTitle(created, w.config.SheetTitle), nil
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}
	if id := sheetIDByTitle(existing, w.config.SheetTitle); id >= 0 {
		return w.config.SpreadsheetID, id, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(w.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to add sheet %q: %w", w.config.SheetTitle, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return "", 0, common.Permanent(fmt.Errorf("add sheet %q returned no properties", w.config.SheetTitle))
	}
	return w.config.SpreadsheetID, resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func sheetIDByTitle(s *sheets.Spreadsheet, title string) int64 {
	for _, sh := range s.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId
		}
	}
	return -1
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.a1("A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (w *Writer) writeBatch(ctx context.Context, spreadsheetID string, offset int, batch [][]any) error {
	_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, w.a1(fmt.Sprintf("A%d", offset+1)), &sheets.ValueRange{
		Values: batch,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (w *Writer) a1(cells string) string {
	return fmt.Sprintf("'%s'!%s", w.config.SheetTitle, cells)
}

// classify turns Sheets API failures into remote errors carrying the
// response status and Retry-After hint.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return common.NewRemoteError(apiErr.Code, retryAfter(apiErr.Header), err)
	}
	return err
}

// retryAfter reads a delay-seconds Retry-After header.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// prepareReportData lays out the report as rows of cells.
func prepareReportData(data *service.ExportData) sheetLayout {
	var l sheetLayout

	l.section("Ledger Report",
		fmt.Sprintf("%s - %s", data.Start.Format("Jan 2, 2006"), data.End.Format("Jan 2, 2006")))
	l.blank()

	l.section("Summary")
	l.row("Total Income", money(data.TotalIncome))
	l.row("Total Expenses", money(data.TotalExpense))
	l.row("Net", money(data.Net))
	l.row("Savings Rate", percent(data.SavingsRate))
	l.blank()

	l.section("Income vs Expenses")
	l.row("Period", "Income", "Expenses", "Net")
	for _, p := range data.Series {
		l.row(p.Label, money(p.Income), money(p.Expense), money(p.Income.Sub(p.Expense)))
	}
	l.blank()

	l.section("Expense Breakdown")
	l.row("Category", "Amount", "Share")
	for _, b := range data.Breakdown {
		share := 0.0
		if data.TotalExpense.IsPositive() {
			share = b.Total.Div(data.TotalExpense).Mul(decimal100).Round(2).InexactFloat64()
		}
		l.row(b.Category, money(b.Total), percent(share))
	}
	l.blank()

	period := time.Date(data.BudgetYear, time.Month(data.BudgetMonth), 1, 0, 0, 0, 0, time.UTC)
	l.section("Budget Status", period.Format("January 2006"))
	l.row("Category", "Budget", "Actual", "Remaining", "Used")
	for _, b := range data.Budgets {
		l.row(b.Category, money(b.Budget), money(b.Actual), money(b.Remaining), percent(b.Percentage))
	}

	return l
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, layout sheetLayout) error {
	totalRows := int64(len(layout.values))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    2,
					EndRowIndex:      totalRows,
					StartColumnIndex: 1,
					EndColumnIndex:   reportColumns - 1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{Type: "CURRENCY", Pattern: "$#,##0.00"},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   reportColumns,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	for _, row := range layout.sectionRows[1:] {
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(row),
					EndRowIndex:      int64(row) + 1,
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		})
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
