package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/registry"
	"github.com/budgetline/releve/internal/rules"
	"github.com/budgetline/releve/internal/store"
)

// fakeStore is an in-memory store.Store that records what the service writes.
type fakeStore struct {
	accounts     map[string]domain.Account
	transactions map[string][]store.Transaction
	anchors      map[string]domain.BalanceAnchor
	mappings     map[string]domain.ColumnMapping
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string][]store.Transaction),
		anchors:      make(map[string]domain.BalanceAnchor),
		mappings:     make(map[string]domain.ColumnMapping),
	}
}

func (f *fakeStore) EnsureAccount(_ context.Context, account domain.Account) error {
	if _, ok := f.accounts[account.ID]; !ok {
		f.accounts[account.ID] = account
	}
	return nil
}

func (f *fakeStore) Account(_ context.Context, id string) (*domain.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if anchor, ok := f.anchors[id]; ok {
		account.Anchor = &anchor
	}
	return &account, nil
}

func (f *fakeStore) Fingerprints(_ context.Context, accountID string) ([]string, error) {
	var fps []string
	for _, tx := range f.transactions[accountID] {
		fps = append(fps, tx.Fingerprint)
	}
	return fps, nil
}

func (f *fakeStore) InsertTransactions(_ context.Context, accountID string, txs []store.Transaction) (int, error) {
	seen := make(map[string]bool)
	for _, tx := range f.transactions[accountID] {
		seen[tx.Fingerprint] = true
	}
	inserted := 0
	for _, tx := range txs {
		if seen[tx.Fingerprint] {
			continue
		}
		seen[tx.Fingerprint] = true
		f.transactions[accountID] = append(f.transactions[accountID], tx)
		inserted++
	}
	return inserted, nil
}

func (f *fakeStore) Transactions(_ context.Context, accountID string) ([]store.Transaction, error) {
	return f.transactions[accountID], nil
}

func (f *fakeStore) UpdateAnchor(_ context.Context, accountID string, anchor domain.BalanceAnchor) error {
	f.anchors[accountID] = anchor
	return nil
}

func (f *fakeStore) SaveMapping(_ context.Context, fp string, mapping domain.ColumnMapping) error {
	f.mappings[fp] = mapping
	return nil
}

func (f *fakeStore) Mapping(_ context.Context, fp string) (*domain.ColumnMapping, error) {
	mapping, ok := f.mappings[fp]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &mapping, nil
}

func (f *fakeStore) Close() error { return nil }

const statementCSV = "Solde;1500,25\n" +
	"Date;15/02/2026\n" +
	"Date;Libellé;Montant(EUROS)\n" +
	"10/02/2026;VIREMENT SALAIRE;2000,00\n" +
	"12/02/2026;PRELEVEMENT EDF;-120,50\n" +
	"12/02/2026;PRELEVEMENT EDF;-120,50\n"

func newTestService(t *testing.T) (*Service, *fakeStore, string) {
	t.Helper()
	engine, err := rules.LoadEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	st := newFakeStore()
	svc := NewService(registry.New(), st, engine)

	path := filepath.Join(t.TempDir(), "releve.csv")
	if err := os.WriteFile(path, []byte(statementCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return svc, st, path
}

func testMeta(t *testing.T, path string) *parser.Metadata {
	t.Helper()
	meta, err := parser.NewMetadata(path, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return meta
}

func TestPreview(t *testing.T) {
	svc, st, path := newTestService(t)

	preview, err := svc.Preview(context.Background(), path, "acct-1", testMeta(t, path))
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}

	if preview.Parser != "banque-populaire" {
		t.Errorf("parser = %q, want banque-populaire", preview.Parser)
	}
	if preview.SessionID == "" {
		t.Error("preview must carry a session ID")
	}
	if preview.Total != 3 || preview.New != 2 || preview.Duplicates != 1 {
		t.Errorf("counts total/new/duplicates = %d/%d/%d, want 3/2/1", preview.Total, preview.New, preview.Duplicates)
	}
	if preview.DetectedBalance == nil || preview.DetectedBalance.StringFixed(2) != "1500.25" {
		t.Errorf("detected balance should be 1500.25, got %v", preview.DetectedBalance)
	}

	salary := preview.Transactions[0]
	if salary.Category != "salary" {
		t.Errorf("salary row should categorize as salary, got %q", salary.Category)
	}
	if salary.Duplicate {
		t.Error("first occurrence must not be flagged duplicate")
	}
	if !preview.Transactions[2].Duplicate {
		t.Error("repeated row within the batch must be flagged duplicate")
	}

	// Preview must not write anything.
	if len(st.accounts) != 0 || len(st.transactions) != 0 || len(st.anchors) != 0 {
		t.Error("Preview performed writes")
	}
}

func TestCommit_ImportsAndAnchors(t *testing.T) {
	svc, st, path := newTestService(t)
	ctx := context.Background()

	result, err := svc.Commit(ctx, path, "acct-1", testMeta(t, path))
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if result.Imported != 2 || result.Duplicates != 1 {
		t.Errorf("imported/duplicates = %d/%d, want 2/1", result.Imported, result.Duplicates)
	}

	if result.Anchor == nil {
		t.Fatal("commit with a detected balance must set an anchor")
	}
	if result.Anchor.AsOf != "2026-02-13" {
		t.Errorf("anchor date should be the newest imported date + 1 day, got %q", result.Anchor.AsOf)
	}
	if result.Anchor.Balance.StringFixed(2) != "1500.25" {
		t.Errorf("anchor balance = %s, want 1500.25", result.Anchor.Balance)
	}

	account, err := st.Account(ctx, "acct-1")
	if err != nil {
		t.Fatal(err)
	}
	if account.Name != "Banque Populaire" {
		t.Errorf("account name should come from the statement, got %q", account.Name)
	}
	if len(st.transactions["acct-1"]) != 2 {
		t.Errorf("store should hold 2 transactions, got %d", len(st.transactions["acct-1"]))
	}
}

func TestCommitPreview_HonorsEditedCategories(t *testing.T) {
	svc, st, path := newTestService(t)
	ctx := context.Background()

	preview, err := svc.Preview(ctx, path, "acct-1", testMeta(t, path))
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if preview.Transactions[0].Category != "salary" {
		t.Fatalf("rules should categorize the salary row, got %q", preview.Transactions[0].Category)
	}

	// The human reviews the preview and overrides a category.
	preview.Transactions[0].Category = "transfers"

	result, err := svc.CommitPreview(ctx, "acct-1", preview)
	if err != nil {
		t.Fatalf("CommitPreview returned error: %v", err)
	}
	if result.Imported != 2 || result.Duplicates != 1 {
		t.Errorf("imported/duplicates = %d/%d, want 2/1", result.Imported, result.Duplicates)
	}

	stored := st.transactions["acct-1"]
	if len(stored) != 2 {
		t.Fatalf("store should hold 2 transactions, got %d", len(stored))
	}
	if stored[0].Category != "transfers" {
		t.Errorf("edited category must survive the commit, got %q", stored[0].Category)
	}
}

func TestCommitPreview_RejectsUnknownCategory(t *testing.T) {
	svc, st, path := newTestService(t)
	ctx := context.Background()

	preview, err := svc.Preview(ctx, path, "acct-1", testMeta(t, path))
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	preview.Transactions[1].Category = "no-such-category"

	if _, err := svc.CommitPreview(ctx, "acct-1", preview); err == nil {
		t.Fatal("expected an error for an unknown category")
	}
	if len(st.transactions["acct-1"]) != 0 {
		t.Error("nothing may be written when a category is invalid")
	}
}

func TestCommit_Idempotent(t *testing.T) {
	svc, _, path := newTestService(t)
	ctx := context.Background()
	meta := testMeta(t, path)

	if _, err := svc.Commit(ctx, path, "acct-1", meta); err != nil {
		t.Fatal(err)
	}

	// Re-importing the same file only yields duplicates; that is not an error.
	result, err := svc.Commit(ctx, path, "acct-1", meta)
	if err != nil {
		t.Fatalf("duplicate-only import must not fail: %v", err)
	}
	if result.Imported != 0 {
		t.Errorf("second import must write nothing, got %d", result.Imported)
	}
	if result.Duplicates != 3 {
		t.Errorf("all 3 rows should be duplicates, got %d", result.Duplicates)
	}

	// Nothing new was imported, so the anchor refreshes from the statement's
	// own balance date.
	if result.Anchor == nil || result.Anchor.AsOf != "2026-02-15" {
		t.Errorf("balance-only anchor update should use the statement date, got %+v", result.Anchor)
	}
}

func TestAnchorFor(t *testing.T) {
	balance := decimal.RequireFromString("100.00")
	freshTx := func(date string) store.Transaction {
		tx, err := domain.NewParsedTransaction(date, "X", decimal.RequireFromString("1.00"), domain.TxExpense)
		if err != nil {
			t.Fatal(err)
		}
		return store.Transaction{ParsedTransaction: tx, Fingerprint: date}
	}

	anchor, err := anchorFor(balance, "2026-02-15", []store.Transaction{freshTx("2026-02-10"), freshTx("2026-02-12")})
	if err != nil {
		t.Fatal(err)
	}
	if anchor.AsOf != "2026-02-13" {
		t.Errorf("anchor should be newest date + 1 day, got %q", anchor.AsOf)
	}

	anchor, err = anchorFor(balance, "2026-02-15", nil)
	if err != nil {
		t.Fatal(err)
	}
	if anchor == nil || anchor.AsOf != "2026-02-15" {
		t.Errorf("without fresh transactions the statement date anchors, got %+v", anchor)
	}

	anchor, err = anchorFor(balance, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if anchor != nil {
		t.Errorf("no fresh transactions and no statement date leaves the anchor alone, got %+v", anchor)
	}

	// Month rollover.
	anchor, err = anchorFor(balance, "", []store.Transaction{freshTx("2026-02-28")})
	if err != nil {
		t.Fatal(err)
	}
	if anchor.AsOf != "2026-03-01" {
		t.Errorf("anchor should roll into March, got %q", anchor.AsOf)
	}
}
