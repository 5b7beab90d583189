package main

import (
	"fmt"

	"github.com/Veraticus/phonocorrect/internal/cli"
	"github.com/Veraticus/phonocorrect/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the rule database schema up to date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}

			db, err := storage.NewSQLiteStorage(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = db.Close() }()

			ctx := cmd.Context()
			before, err := db.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if status, _ := cmd.Flags().GetBool("status"); status {
				state := "up to date"
				if before < storage.ExpectedSchemaVersion {
					state = fmt.Sprintf("%d migration(s) pending", storage.ExpectedSchemaVersion-before)
				}
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Schema version %d of %d (%s)", before, storage.ExpectedSchemaVersion, state)))
				return nil
			}

			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			if before == storage.ExpectedSchemaVersion {
				fmt.Fprintln(out, cli.FormatSuccess("Database already up to date"))
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Migrated schema from version %d to %d", before, storage.ExpectedSchemaVersion)))
			return nil
		},
	}

	cmd.Flags().Bool("status", false, "report the schema version without migrating")

	return cmd
}
