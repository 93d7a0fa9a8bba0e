package main

import (
	"github.com/spf13/cobra"

	"github.com/vadiminshakov/rsitrader/internal/setup"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create a config file with an interactive wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setup.RunTUI(configPath)
		},
	}
}
