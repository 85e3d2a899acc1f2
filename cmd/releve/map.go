package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/output"
	"github.com/budgetline/releve/internal/parsers/generic"
	"github.com/budgetline/releve/internal/store"
	"github.com/budgetline/releve/internal/ui"
)

func mapCmd() *cobra.Command {
	var (
		flags     domain.ColumnMapping
		separator string
		outPath   string
		noSave    bool
	)

	cmd := &cobra.Command{
		Use:   "map <file>",
		Short: "Parse an unrecognized delimited file with an explicit column mapping",
		Long: `Map parses a delimited file no registered parser recognizes, using the
column names you supply. Provide either --amount-column (signed amounts)
or both --debit-column and --credit-column.

The confirmed mapping is saved under the file's header fingerprint. A
later file with the same header layout needs no column flags at all:
the stored mapping is replayed.`,
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

			if separator != "" {
				flags.Separator, err = separatorFromName(separator)
				if err != nil {
					return err
				}
			}

			st, err := store.OpenSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("cannot open database %s: %w", dbPath, err)
			}
			defer st.Close()

			mapping, fromStore, err := resolveMapping(cmd.Context(), st, detection, flags)
			if err != nil {
				return err
			}

			result, err := generic.ParseWithMapping(string(data), mapping)
			if err != nil {
				return err
			}

			if fromStore {
				ui.Info(fmt.Sprintf("replayed stored mapping for header fingerprint %s", detection.Fingerprint))
			} else if !noSave {
				if err := st.SaveMapping(cmd.Context(), detection.Fingerprint, mapping); err != nil {
					return err
				}
				ui.Success(fmt.Sprintf("mapping saved for header fingerprint %s", detection.Fingerprint))
			}

			return output.WriteJSONToFile(result, output.WriteOptions{FilePath: outPath})
		},
	}

	cmd.Flags().StringVar(&flags.DateColumn, "date-column", "", "header of the date column")
	cmd.Flags().StringVar(&flags.DescriptionColumn, "description-column", "", "header of the description column")
	cmd.Flags().StringVar(&flags.AmountColumn, "amount-column", "", "header of the signed amount column")
	cmd.Flags().StringVar(&flags.DebitColumn, "debit-column", "", "header of the debit column")
	cmd.Flags().StringVar(&flags.CreditColumn, "credit-column", "", "header of the credit column")
	cmd.Flags().StringVar(&flags.DateFormat, "date-format", "", "date format key (DD/MM/YYYY, MM/DD/YYYY, YYYY-MM-DD, DD-MM-YYYY, DD.MM.YYYY)")
	cmd.Flags().StringVar(&separator, "separator", "", "field separator: semicolon, comma or tab (default: auto-detected)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write JSON to file instead of stdout")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "parse without persisting the mapping")
	return cmd
}

// resolveMapping decides which mapping to parse with. Column flags build a
// fresh mapping; without any, the mapping stored under the file's header
// fingerprint is replayed.
func resolveMapping(ctx context.Context, st store.Store, detection *generic.HeaderDetection, flags domain.ColumnMapping) (domain.ColumnMapping, bool, error) {
	noColumns := flags.DateColumn == "" && flags.DescriptionColumn == "" &&
		flags.AmountColumn == "" && flags.DebitColumn == "" && flags.CreditColumn == ""
	if noColumns {
		stored, err := st.Mapping(ctx, detection.Fingerprint)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ColumnMapping{}, false, fmt.Errorf(
				"no stored mapping for this header layout; pass --date-column and --description-column plus --amount-column or --debit-column/--credit-column")
		}
		if err != nil {
			return domain.ColumnMapping{}, false, err
		}
		return *stored, true, nil
	}

	if flags.Separator == "" {
		flags.Separator = detection.Separator
	}
	if flags.DateFormat == "" {
		flags.DateFormat = "DD/MM/YYYY"
	}
	return flags, false, nil
}

func separatorFromName(name string) (string, error) {
	switch name {
	case "semicolon", domain.SeparatorSemicolon:
		return domain.SeparatorSemicolon, nil
	case "comma", domain.SeparatorComma:
		return domain.SeparatorComma, nil
	case "tab", domain.SeparatorTab:
		return domain.SeparatorTab, nil
	}
	return "", fmt.Errorf("unsupported separator %q (allowed: semicolon, comma, tab)", name)
}
