package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/budgetline/releve/internal/ingest"
	"github.com/budgetline/releve/internal/output"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/ui"
)

func previewCmd() *cobra.Command {
	var (
		accountID string
		asJSON    bool
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show what importing a statement file would do, without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := openService()
			if err != nil {
				return err
			}
			defer st.Close()

			meta, err := parser.NewMetadata(args[0], time.Now())
			if err != nil {
				return err
			}
			acct, err := accountKey(accountID, meta)
			if err != nil {
				return err
			}
			preview, err := svc.Preview(cmd.Context(), args[0], acct, meta)
			if err != nil {
				return err
			}
			if asJSON || outPath != "" {
				return output.WriteJSONToFile(preview, output.WriteOptions{FilePath: outPath})
			}
			printPreview(preview)
			return nil
		},
	}
	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account identifier (default: derived from the directory layout)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full preview as JSON")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write JSON to file instead of stdout")
	return cmd
}

func printPreview(p *ingest.Preview) {
	ui.Header("Import Preview")
	ui.Info(fmt.Sprintf("File:    %s", p.FilePath))
	ui.Info(fmt.Sprintf("Parser:  %s", p.Parser))
	ui.Info(fmt.Sprintf("Bank:    %s (%s)", p.BankName, p.Currency))
	if p.DetectedBalance != nil {
		ui.Info(fmt.Sprintf("Balance: %s as of %s", p.DetectedBalance.StringFixed(2), p.DetectedBalanceDate))
	}
	ui.Info(fmt.Sprintf("Transactions: %d total, %d new, %d duplicates", p.Total, p.New, p.Duplicates))

	if verbose {
		for _, tx := range p.Transactions {
			line := fmt.Sprintf("  %s  %10s  %-12s %s",
				tx.Date, tx.SignedAmount().StringFixed(2), tx.Category, tx.Description)
			if tx.Duplicate {
				ui.YellowText(line + "  (duplicate)")
			} else {
				ui.Info(line)
			}
		}
	}

	switch {
	case p.Total == 0:
		ui.Warning("No transactions found in this file")
	case p.New == 0:
		ui.Warning("Everything in this file was already imported")
	default:
		ui.Success(fmt.Sprintf("%d transactions would be imported", p.New))
	}
}
