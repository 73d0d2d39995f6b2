package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/config"
	"github.com/Veraticus/ledger/internal/report"
	"github.com/Veraticus/ledger/internal/service"
	"github.com/Veraticus/ledger/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Publish reports outside the terminal",
	}

	cmd.AddCommand(exportSheetsCmd())

	return cmd
}

func exportSheetsCmd() *cobra.Command {
	var (
		dates         rangeFlags
		spreadsheetID string
	)

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write a report to Google Sheets",
		Long: `Write the summary, income against expenses, expense breakdown and budget
status for a date range to the report tab of a Google spreadsheet. A new
spreadsheet is created when none is configured.

Authentication comes from sheets.* in the config file or GOOGLE_SHEETS_*
variables: either a service account key or an OAuth2 client with a refresh
token (see 'ledger export sheets auth').`,
		Example: `  ledger export sheets --preset last-month
  ledger export sheets --from 2024-01-01 --to 2024-12-31 --spreadsheet-id 1AbC...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadSheetsConfig()
			if err != nil {
				return common.NewUserError("Google Sheets is not configured", err)
			}
			if spreadsheetID != "" {
				cfg.SpreadsheetID = spreadsheetID
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := report.NewEngine(store)
			r, err := exportRange(engine, &dates)
			if err != nil {
				return err
			}

			writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to connect to Google Sheets: %w", err)
			}

			if err := runExport(ctx, engine, writer, r); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %s to https://docs.google.com/spreadsheets/d/%s",
				r.String(), writer.SpreadsheetID())))
			return nil
		},
	}

	dates.register(cmd)
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet-id", "", "target spreadsheet (overrides sheets.spreadsheet_id)")
	cmd.AddCommand(authSheetsCmd())

	return cmd
}

// exportRange resolves the export window; it defaults to the current month.
func exportRange(engine *report.Engine, dates *rangeFlags) (report.DateRange, error) {
	if dates.preset == "" && dates.from == "" && dates.to == "" {
		return report.PresetThisMonth.Range(engine.Today()), nil
	}
	start, end, err := dates.resolve(engine.Today())
	if err != nil {
		return report.DateRange{}, err
	}
	return engine.ResolveRange(start, end, report.DefaultTotalsDays)
}

// runExport builds the export for r and hands it to writer.
func runExport(ctx context.Context, engine *report.Engine, writer service.ReportWriter, r report.DateRange) error {
	data, err := engine.BuildExport(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if err := writer.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func authSheetsCmd() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		listen       string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize ledger to write to Google Sheets",
		Long: `Run the OAuth2 consent flow in your browser and store the resulting refresh
token in the config file. Needs an OAuth2 desktop client id and secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if clientID == "" {
				clientID = firstNonEmpty(viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
			}
			if clientSecret == "" {
				clientSecret = firstNonEmpty(viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
			}
			if clientID == "" || clientSecret == "" {
				return common.NewUserError("OAuth2 client credentials not found; set sheets.client_id and sheets.client_secret or pass --client-id and --client-secret",
					common.ErrMissingConfig)
			}

			tokenFile := filepath.Join(config.ConfigDir(), "sheets-token.json")
			token, err := sheets.AuthenticateOAuth2Interactive(ctx, sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    tokenFile,
				ListenAddr:   listen,
			}, func(url string) {
				fmt.Fprintln(out, cli.FormatPrompt("Open this URL to authorize ledger"))
				fmt.Fprintln(out, url)
				openBrowser(url)
			})
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			viper.Set("sheets.client_id", clientID)
			viper.Set("sheets.client_secret", clientSecret)
			viper.Set("sheets.refresh_token", token.RefreshToken)
			if err := saveConfig(); err != nil {
				slog.Warn("failed to update config file with refresh token", "error", err)
				fmt.Fprintln(out, cli.FormatWarning("Could not save the refresh token; add it to "+configFilePath()+" under sheets.refresh_token"))
				return nil
			}

			fmt.Fprintln(out, cli.FormatSuccess("Google Sheets is ready. Run 'ledger export sheets' to publish a report."))
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client id (overrides config)")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret (overrides config)")
	cmd.Flags().StringVar(&listen, "listen", "localhost:8080", "address for the OAuth2 callback")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func saveConfig() error {
	path := configFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return viper.WriteConfigAs(path)
}

// openBrowser tries to open the URL in the default browser.
func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec
	}
	if err != nil {
		slog.Debug("failed to open browser", "error", err)
	}
}
