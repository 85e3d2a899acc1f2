package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/budgetline/releve/internal/output"
	"github.com/budgetline/releve/internal/parsers/generic"
)

func detectCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Sniff a delimited file's headers for column mapping",
		Long: `Detect reads a delimited file and reports its separator, header row,
a short data preview and the header fingerprint. Use the fingerprint
with 'releve map' to save a column mapping for files with this layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", args[0], err)
			}
			detection, err := generic.DetectHeaders(string(data))
			if err != nil {
				return fmt.Errorf("header detection failed for %s: %w", args[0], err)
			}
			return output.WriteJSONToFile(detection, output.WriteOptions{FilePath: outPath})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write JSON to file instead of stdout")
	return cmd
}
