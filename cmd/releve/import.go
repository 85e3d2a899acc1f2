package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/scanner"
	"github.com/budgetline/releve/internal/ui"
)

func importCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "import <file-or-directory>...",
		Short: "Import statement files into an account",
		Long: `Import parses each given statement file, skips every transaction already
recorded for the account, writes the new ones and moves the account's
balance anchor forward. Directories are walked recursively; a layout of
{dir}/{institution}/{account}/file gives each file institution hints.

Importing the same file twice writes nothing the second time.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := collectTargets(args)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				ui.Warning("No statement files found")
				return nil
			}

			svc, st, err := openService()
			if err != nil {
				return err
			}
			defer st.Close()

			var imported, duplicates, failed int
			for i, target := range targets {
				ui.Step(i+1, len(targets), target.Path)
				acct, err := accountKey(accountID, target.Metadata)
				if err != nil {
					ui.Error(fmt.Sprintf("%s: %v", target.Path, err))
					failed++
					continue
				}
				res, err := svc.Commit(cmd.Context(), target.Path, acct, target.Metadata)
				if err != nil {
					ui.Error(fmt.Sprintf("%s: %v", target.Path, err))
					failed++
					continue
				}
				imported += res.Imported
				duplicates += res.Duplicates
				if res.Imported == 0 && res.Duplicates > 0 {
					ui.Warning(fmt.Sprintf("all %d transactions already imported", res.Duplicates))
				} else {
					ui.Success(fmt.Sprintf("%d imported, %d duplicates skipped", res.Imported, res.Duplicates))
				}
				if res.Anchor != nil {
					ui.Info(fmt.Sprintf("balance anchor: %s as of %s", res.Anchor.Balance.StringFixed(2), res.Anchor.AsOf))
				}
			}

			ui.Header("Import Complete")
			ui.Info(fmt.Sprintf("Files: %d, imported: %d, duplicates: %d", len(targets), imported, duplicates))
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to import", failed, len(targets))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account identifier (default: derived from the directory layout)")
	return cmd
}

// collectTargets expands each argument into statement files: directories are
// scanned recursively, plain files are taken as-is.
func collectTargets(args []string) ([]scanner.ScanResult, error) {
	var targets []scanner.ScanResult
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if info.IsDir() {
			found, err := scanner.New(arg).Scan()
			if err != nil {
				return nil, err
			}
			targets = append(targets, found...)
			continue
		}
		meta, err := parser.NewMetadata(arg, time.Now())
		if err != nil {
			return nil, err
		}
		targets = append(targets, scanner.ScanResult{Path: arg, Metadata: meta})
	}
	return targets, nil
}
