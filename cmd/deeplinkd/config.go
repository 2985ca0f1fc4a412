package main

import (
	"github.com/goliatone/go-deeplink/adapters/tomlconfig"
	"github.com/spf13/cobra"
)

func newConfigCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), root)
			if err != nil {
				return err
			}
			return tomlconfig.Encode(cmd.OutOrStdout(), cfg)
		},
	})
	return cmd
}
