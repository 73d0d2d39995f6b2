package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/storage"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		Aliases: []string{"snapshot"},
		Short:   "Manage database snapshots",
		Long: `Create, list, restore, and delete snapshots of the ledger database.

Snapshots are full copies kept in a snapshots directory next to the database.
An automatic snapshot is taken before every import; the five newest are kept.`,
		Example: `  ledger backup create --tag before-cleanup
  ledger backup list
  ledger backup restore before-cleanup
  ledger backup delete before-cleanup`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())
	cmd.AddCommand(restoreBackupCmd())
	cmd.AddCommand(deleteBackupCmd())

	return cmd
}

// openSnapshots opens the ledger and its snapshot manager.
func openSnapshots(cmd *cobra.Command) (*storage.SQLiteStorage, *storage.SnapshotManager, error) {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	manager, err := store.NewSnapshotManager()
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to open snapshots: %w", err)
	}
	return store, manager, nil
}

func createBackupCmd() *cobra.Command {
	var (
		tag         string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the current database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, manager, err := openSnapshots(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			info, err := manager.Create(cmd.Context(), tag, description)
			if err != nil {
				return fmt.Errorf("failed to create snapshot: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created snapshot %s (%s, %d transactions)",
				cli.InfoStyle.Render(info.ID), formatFileSize(info.FileSize), info.Transactions)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "snapshot name (generated when empty)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the snapshot is for")

	return cmd
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, manager, err := openSnapshots(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			snapshots, err := manager.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list snapshots: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(snapshots) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No snapshots."))
				return nil
			}

			rows := make([][]string, 0, len(snapshots))
			for _, s := range snapshots {
				kind := "manual"
				if s.IsAuto {
					kind = "auto"
				}
				rows = append(rows, []string{
					s.ID,
					s.CreatedAt.Local().Format("2006-01-02 15:04"),
					formatFileSize(s.FileSize),
					strconv.Itoa(s.Transactions),
					strconv.Itoa(s.Categories),
					strconv.Itoa(s.Budgets),
					kind,
				})
			}
			_, err = fmt.Fprintln(out, cli.Table(
				[]string{"Name", "Created", "Size", "Transactions", "Categories", "Budgets", "Type"}, rows, 2, 3, 4, 5))
			return err
		},
	}
}

func restoreBackupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <snapshot>",
		Short: "Replace the database with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, manager, err := openSnapshots(cmd)
			if err != nil {
				return err
			}
			// Restore closes the handle itself; closing again is a no-op.
			defer store.Close()

			info, err := manager.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}

			if !force {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("This replaces the current database with %s from %s.",
					info.ID, info.CreatedAt.Local().Format("2006-01-02 15:04"))))
				ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, "Continue?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.SubtleStyle.Render("Restore cancelled."))
					return nil
				}
			}

			if err := manager.Restore(ctx, info.ID); err != nil {
				return fmt.Errorf("failed to restore snapshot: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess("Restored snapshot "+info.ID))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}

func deleteBackupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <snapshot>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, manager, err := openSnapshots(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if !force {
				ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, "Delete snapshot "+args[0]+"?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.SubtleStyle.Render("Deletion cancelled."))
					return nil
				}
			}

			if err := manager.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete snapshot: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess("Deleted snapshot "+args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
