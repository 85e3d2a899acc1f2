package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/budgetline/releve/internal/ingest"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/registry"
	"github.com/budgetline/releve/internal/rules"
	"github.com/budgetline/releve/internal/store"
	"github.com/budgetline/releve/internal/transform"
)

var (
	dbPath    string
	rulesPath string
	verbose   bool

	version = "dev"

	rootCmd = &cobra.Command{
		Use:   "releve",
		Short: "Bank statement ingestion and deduplication",
		Long: `releve parses bank statement exports (CSV, Excel, PDF, OFX/QFX),
deduplicates transactions across overlapping exports and keeps each
account's balance anchor reconciled with the latest statement.

Point it at a downloaded statement to preview what an import would do,
then import it. Re-importing the same file is always safe.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "releve.db", "path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "categorization rules YAML (default: embedded rules)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show per-transaction detail")

	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(mapCmd())
	rootCmd.AddCommand(parsersCmd())
	rootCmd.AddCommand(versionCmd())
}

func loadRules() (*rules.Engine, error) {
	if rulesPath == "" {
		return rules.LoadEmbedded()
	}
	return rules.LoadFromFile(rulesPath)
}

// openService builds the ingestion service. The caller owns the returned
// store and must close it.
func openService() (*ingest.Service, *store.SQLiteStore, error) {
	engine, err := loadRules()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open database %s (pass --db to use another location): %w", dbPath, err)
	}
	return ingest.NewService(registry.New(), st, engine), st, nil
}

// accountKey resolves the account identifier for a file: the --account flag
// when given, otherwise a key derived from the directory-layout hints
// ("Banque Populaire" under account 12345 becomes "banque-populaire-12345").
func accountKey(flagValue string, meta *parser.Metadata) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if meta == nil || meta.Institution() == "" {
		return "", fmt.Errorf("no --account given and no institution hint in the directory layout")
	}
	slug, err := transform.Slugify(meta.Institution())
	if err != nil {
		return "", err
	}
	if meta.AccountID() != "" {
		return slug + "-" + meta.AccountID(), nil
	}
	return slug, nil
}
