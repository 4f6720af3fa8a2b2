package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "upload-data",
		Short:         "Bulk ingestion of logistics MIS spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newTypesCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
