package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/config"
	"github.com/Veraticus/ledger/internal/storage"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Bring the database schema up to date. Every command does this on start; run it explicitly after upgrading or with --status to inspect.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := storage.NewSQLiteStorage(config.DatabasePath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()

			before, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if status {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s is at schema version %d of %d", store.Path(), before, storage.ExpectedSchemaVersion)))
				return nil
			}

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			after, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			if after == before {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Schema already at version %d", after)))
			} else {
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Migrated schema from version %d to %d", before, after)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show the schema version without migrating")

	return cmd
}
