// Package ingest orchestrates the import pipeline: parse, categorize,
// fingerprint, deduplicate, persist, reconcile the balance anchor.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budgetline/releve/internal/dedup"
	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/registry"
	"github.com/budgetline/releve/internal/rules"
	"github.com/budgetline/releve/internal/store"
	"github.com/budgetline/releve/internal/validate"
)

// Service wires the parser registry, the persistence boundary and the
// categorization rules into the two ingestion operations: Preview and Commit.
type Service struct {
	registry *registry.Registry
	store    store.Store
	rules    *rules.Engine
}

// NewService creates the ingestion service.
func NewService(reg *registry.Registry, st store.Store, engine *rules.Engine) *Service {
	return &Service{registry: reg, store: st, rules: engine}
}

// PreviewTransaction is one parsed transaction enriched for human review.
type PreviewTransaction struct {
	domain.ParsedTransaction
	Category    string `json:"category"`
	Fingerprint string `json:"fingerprint"`
	Duplicate   bool   `json:"duplicate"`
}

// Preview is the dry-run result of an import: everything Commit would do,
// without a single write.
type Preview struct {
	SessionID           string               `json:"sessionId"`
	FilePath            string               `json:"filePath"`
	Parser              string               `json:"parser"`
	BankName            string               `json:"bankName"`
	Currency            string               `json:"currency"`
	Transactions        []PreviewTransaction `json:"transactions"`
	Total               int                  `json:"total"`
	New                 int                  `json:"new"`
	Duplicates          int                  `json:"duplicates"`
	DetectedBalance     *decimal.Decimal     `json:"detectedBalance,omitempty"`
	DetectedBalanceDate string               `json:"detectedBalanceDate,omitempty"`
}

// CommitResult reports what an import actually changed.
type CommitResult struct {
	SessionID  string                `json:"sessionId"`
	Imported   int                   `json:"imported"`
	Duplicates int                   `json:"duplicates"`
	Anchor     *domain.BalanceAnchor `json:"anchor,omitempty"`
}

// Preview parses the file and reports what an import would do: per
// transaction the category, fingerprint and duplicate flag, plus aggregate
// counts. It performs no writes, so previewing twice is always safe.
func (s *Service) Preview(ctx context.Context, path, accountID string, meta *parser.Metadata) (*Preview, error) {
	return s.analyze(ctx, path, accountID, meta)
}

// Commit imports the file: new transactions are inserted and the account's
// balance anchor advances when the statement reported a balance. Importing a
// file twice is a no-op; an import consisting only of duplicates is not an
// error.
func (s *Service) Commit(ctx context.Context, path, accountID string, meta *parser.Metadata) (*CommitResult, error) {
	preview, err := s.analyze(ctx, path, accountID, meta)
	if err != nil {
		return nil, err
	}
	return s.CommitPreview(ctx, accountID, preview)
}

// CommitPreview persists a reviewed preview as-is: the transaction list the
// human confirmed, edited categories included, plus the balance detected when
// the preview was built. The file is not re-read and categories are not
// re-derived.
func (s *Service) CommitPreview(ctx context.Context, accountID string, preview *Preview) (*CommitResult, error) {
	for i, tx := range preview.Transactions {
		if !rules.ValidateCategory(tx.Category) {
			return nil, fmt.Errorf("transaction %d: unknown category %q", i, tx.Category)
		}
	}

	account := domain.Account{ID: accountID, Name: preview.BankName, Currency: preview.Currency}
	if err := s.store.EnsureAccount(ctx, account); err != nil {
		return nil, err
	}

	var fresh []store.Transaction
	for _, tx := range preview.Transactions {
		if tx.Duplicate {
			continue
		}
		fresh = append(fresh, store.Transaction{
			ParsedTransaction: tx.ParsedTransaction,
			Category:          tx.Category,
			Fingerprint:       tx.Fingerprint,
		})
	}

	inserted := 0
	if len(fresh) > 0 {
		var err error
		inserted, err = s.store.InsertTransactions(ctx, accountID, fresh)
		if err != nil {
			return nil, fmt.Errorf("failed to persist transactions: %w", err)
		}
	}

	result := &CommitResult{
		SessionID:  preview.SessionID,
		Imported:   inserted,
		Duplicates: preview.Total - len(fresh),
	}

	if preview.DetectedBalance != nil {
		anchor, err := anchorFor(*preview.DetectedBalance, preview.DetectedBalanceDate, fresh)
		if err != nil {
			return nil, err
		}
		if anchor != nil {
			if err := s.store.UpdateAnchor(ctx, accountID, *anchor); err != nil {
				return nil, fmt.Errorf("failed to update balance anchor: %w", err)
			}
			result.Anchor = anchor
		}
	}
	return result, nil
}

func (s *Service) analyze(ctx context.Context, path, accountID string, meta *parser.Metadata) (*Preview, error) {
	p, err := s.registry.FindParser(path)
	if err != nil {
		return nil, err
	}
	parsed, err := s.registry.ParseFile(ctx, path, meta)
	if err != nil {
		return nil, err
	}
	if report := validate.ValidateResult(parsed); !report.OK() {
		return nil, fmt.Errorf("parser %s produced invalid output: %s", p.Name(), report.Errors[0].Error())
	}

	known, err := s.store.Fingerprints(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load known fingerprints: %w", err)
	}
	index := dedup.NewIndex(known)

	preview := &Preview{
		SessionID:           uuid.NewString(),
		FilePath:            path,
		Parser:              p.Name(),
		BankName:            parsed.BankName,
		Currency:            parsed.Currency,
		Transactions:        make([]PreviewTransaction, 0, len(parsed.Transactions)),
		Total:               len(parsed.Transactions),
		DetectedBalance:     parsed.DetectedBalance,
		DetectedBalanceDate: parsed.DetectedBalanceDate,
	}

	for _, tx := range parsed.Transactions {
		fp := dedup.Fingerprint(tx)
		duplicate := index.Mark(fp)
		if duplicate {
			preview.Duplicates++
		} else {
			preview.New++
		}
		preview.Transactions = append(preview.Transactions, PreviewTransaction{
			ParsedTransaction: tx,
			Category:          s.rules.Categorize(tx.Description),
			Fingerprint:       fp,
			Duplicate:         duplicate,
		})
	}
	return preview, nil
}

// anchorFor derives the new balance anchor. The anchor date is the day after
// the newest imported transaction, the point from which running balances are
// projected forward. When nothing new was imported the statement balance
// still refreshes the anchor, dated by the statement itself; without either
// date the anchor is left alone.
func anchorFor(balance decimal.Decimal, balanceDate string, fresh []store.Transaction) (*domain.BalanceAnchor, error) {
	var newest string
	for _, tx := range fresh {
		if tx.Date > newest {
			newest = tx.Date
		}
	}

	if newest == "" {
		if balanceDate == "" {
			return nil, nil
		}
		return &domain.BalanceAnchor{Balance: balance, AsOf: balanceDate}, nil
	}

	day, err := time.Parse("2006-01-02", newest)
	if err != nil {
		return nil, fmt.Errorf("corrupt transaction date %q: %w", newest, err)
	}
	return &domain.BalanceAnchor{
		Balance: balance,
		AsOf:    day.AddDate(0, 0, 1).Format("2006-01-02"),
	}, nil
}
