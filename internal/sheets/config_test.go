package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/ledger/internal/common"
)

func TestConfigValidate(t *testing.T) {
	oauth := func() Config {
		c := DefaultConfig()
		c.ClientID = "client"
		c.ClientSecret = "secret"
		c.RefreshToken = "refresh"
		return c
	}

	tests := []struct {
		name    string
		wantErr error
		errMsg  string
		mutate  func(*Config)
	}{
		{name: "valid oauth config"},
		{
			name:   "valid service account config",
			mutate: func(c *Config) { c.ClientID, c.ClientSecret, c.RefreshToken, c.ServiceAccountPath = "", "", "", "/keys/sa.json" },
		},
		{
			name:    "partial oauth credentials",
			mutate:  func(c *Config) { c.ClientSecret = "" },
			wantErr: common.ErrMissingConfig,
			errMsg:  "no Google Sheets authentication",
		},
		{
			name:    "multiple auth methods",
			mutate:  func(c *Config) { c.ServiceAccountPath = "/keys/sa.json" },
			wantErr: common.ErrInvalidConfig,
			errMsg:  "multiple authentication methods",
		},
		{
			name:    "invalid batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: common.ErrInvalidConfig,
			errMsg:  "batch size must be positive",
		},
		{
			name:    "negative retry attempts",
			mutate:  func(c *Config) { c.RetryAttempts = -1 },
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "negative retry delay",
			mutate:  func(c *Config) { c.RetryDelay = -time.Second },
			wantErr: common.ErrInvalidConfig,
			errMsg:  "retry delay cannot be negative",
		},
		{
			name:   "zero retries is valid",
			mutate: func(c *Config) { c.RetryAttempts, c.RetryDelay = 0, 0 },
		},
		{
			name:    "empty sheet title",
			mutate:  func(c *Config) { c.SheetTitle = "" },
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := oauth()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}
