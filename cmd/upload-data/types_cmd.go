package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/mappings"
)

func newTypesCmd() *cobra.Command {
	var mappingsPath string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List upload types and the headers each one accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := mappings.Load(mappingsPath)
			if err != nil {
				return withCode(exitValidation, fmt.Errorf("load mappings: %w", err))
			}
			for _, m := range registry.All() {
				if err := writeJSONLine(cmd.OutOrStdout(), m); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mappingsPath, "mappings", "", "Column mappings file (default: built-in mappings)")
	return cmd
}
