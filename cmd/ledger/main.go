package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/config"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "ledger",
		Short: cli.LedgerIcon + " Personal finance ledger",
		Long: `ledger records income, expenses and transfers, tracks monthly budgets per
category and turns the history into reports: totals per period, category
breakdowns, budget status and income against expenses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/ledger/config.yaml)")
	flags.String("db", "", "database file (default: "+config.DefaultDatabasePath+")")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("database.path", flags.Lookup("db"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))

	root.AddCommand(
		initCmd(),
		categoriesCmd(),
		transactionsCmd(),
		budgetCmd(),
		rulesCmd(),
		reportCmd(),
		importCmd(),
		exportCmd(),
		dashboardCmd(),
		backupCmd(),
		migrateCmd(),
		versionCmd(),
	)

	return root
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx := interrupts.HandleInterrupts(context.Background(), "")

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil && !interrupts.WasInterrupted() {
		fmt.Fprintln(os.Stderr, cli.FormatError(common.Describe(err)))
	}
	if err != nil {
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, cfgFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(config.ExpandPath(cfgFile))
	} else {
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(cmd.ErrOrStderr(), viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledger %s\n", version)
		},
	}
}

// configFilePath is where `ledger export sheets auth` suggests storing credentials.
func configFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(config.ConfigDir(), "config.yaml")
}
