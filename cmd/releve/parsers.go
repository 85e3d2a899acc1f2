package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/budgetline/releve/internal/registry"
	"github.com/budgetline/releve/internal/ui"
)

func parsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parsers",
		Short: "List registered statement parsers in dispatch order",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := registry.New().ListParsers()
			ui.Header("Registered Parsers")
			for i, name := range names {
				ui.Info(fmt.Sprintf("%2d. %s", i+1, name))
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the releve version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("releve %s\n", version)
		},
	}
}
