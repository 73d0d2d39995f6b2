package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledger/internal/common"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("LEDGER_TEST_DIR", "/srv/ledger")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/books/ledger.db", filepath.Join(home, "books/ledger.db")},
		{"$LEDGER_TEST_DIR/ledger.db", "/srv/ledger/ledger.db"},
		{"/abs/path.db", "/abs/path.db"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestDatabasePath(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("database.path", ":memory:")
	assert.Equal(t, ":memory:", DatabasePath())

	viper.Set("database.path", "")
	assert.Equal(t, ExpandPath(DefaultDatabasePath), DatabasePath())
}

func clearSheetsEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_SPREADSHEET_ID",
		"GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Run("viper wins over env", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "from-env")
		viper.Set("sheets.service_account_path", "/keys/sa.json")
		viper.Set("sheets.spreadsheet_id", "from-config")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "from-config", cfg.SpreadsheetID)
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "refresh")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "Household")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "id", cfg.ClientID)
		assert.Equal(t, "Household", cfg.SpreadsheetName)
	})

	t.Run("no credentials", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		clearSheetsEnv(t)

		_, err := LoadSheetsConfig()
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}
