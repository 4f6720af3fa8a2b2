package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/application"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the logistics schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrations(cmd.Context(), func(ctx context.Context, mm application.MigrationManager) error {
				if err := mm.Run(ctx); err != nil {
					return withCode(exitDBWrite, err)
				}
				return writeJSONLine(cmd.OutOrStdout(), map[string]string{"status": "up to date"})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrations(cmd.Context(), func(ctx context.Context, mm application.MigrationManager) error {
				status, err := mm.Status(ctx)
				if err != nil {
					return withCode(exitDB, err)
				}
				for _, s := range status {
					if err := writeJSONLine(cmd.OutOrStdout(), s); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})
	return cmd
}

func withMigrations(ctx context.Context, fn func(context.Context, application.MigrationManager) error) error {
	conf := configuration.Use()
	defer conf.Unload()

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return withCode(exitDB, fmt.Errorf("connect: %w", err))
	}
	defer pool.Close()

	mm := application.NewMigrationManager(pool, conf.Logger())
	mm.RegisterSchema(&logistics.MigrationFiles)
	return fn(ctx, mm)
}
