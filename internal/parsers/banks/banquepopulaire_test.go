package banks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
)

const bpStatement = `Solde;1500,25
Date;15/02/2026
Date;Libellé;Montant(EUROS)
10/02/2026;VIREMENT SALAIRE;2000,00
12/02/2026;PRELEVEMENT EDF;-120,50
`

func testMeta(t *testing.T) *parser.Metadata {
	t.Helper()
	meta, err := parser.NewMetadata("releve.csv", time.Now())
	if err != nil {
		t.Fatalf("NewMetadata failed: %v", err)
	}
	return meta
}

func TestBanquePopulaire_Parse(t *testing.T) {
	p := NewBanquePopulaire()
	result, err := p.Parse(context.Background(), strings.NewReader(bpStatement), testMeta(t))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if result.DetectedBalance == nil {
		t.Fatal("expected detected balance")
	}
	if got := result.DetectedBalance.StringFixed(2); got != "1500.25" {
		t.Errorf("detected balance = %s, want 1500.25", got)
	}
	if result.DetectedBalanceDate != "2026-02-15" {
		t.Errorf("detected balance date = %q, want 2026-02-15", result.DetectedBalanceDate)
	}

	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}
	salary := result.Transactions[0]
	if salary.Type != domain.TxIncome || salary.Amount.StringFixed(2) != "2000.00" || salary.Date != "2026-02-10" {
		t.Errorf("unexpected salary transaction: %+v", salary)
	}
	edf := result.Transactions[1]
	if edf.Type != domain.TxExpense || edf.Amount.StringFixed(2) != "120.50" || edf.Description != "PRELEVEMENT EDF" {
		t.Errorf("unexpected EDF transaction: %+v", edf)
	}
}

func TestBanquePopulaire_CanParse(t *testing.T) {
	p := NewBanquePopulaire()
	tests := []struct {
		name   string
		path   string
		header string
		want   bool
	}{
		{name: "matching header", path: "export.csv", header: "Date;Libellé;Montant(EUROS)", want: true},
		// A header whose accented column arrived mis-decoded must still match.
		{name: "mis-decoded header", path: "export.csv", header: "Date;LibellÃ©;Montant(EUROS)", want: true},
		{name: "wrong extension", path: "export.pdf", header: "Date;Libellé;Montant(EUROS)", want: false},
		{name: "foreign header", path: "export.csv", header: "Date;Libellé;Débit euros;Crédit euros", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.CanParse(tt.path, []byte(tt.header)); got != tt.want {
				t.Errorf("CanParse(%q, %q) = %v, want %v", tt.path, tt.header, got, tt.want)
			}
		})
	}
}

func TestBanquePopulaire_EmptyBody(t *testing.T) {
	p := NewBanquePopulaire()
	result, err := p.Parse(context.Background(), strings.NewReader(""), testMeta(t))
	if err != nil {
		t.Fatalf("Parse of empty body returned error: %v", err)
	}
	if len(result.Transactions) != 0 {
		t.Errorf("expected no transactions, got %d", len(result.Transactions))
	}
	if result.DetectedBalance != nil {
		t.Error("expected nil detected balance for empty body")
	}
}

func TestBanquePopulaire_NoiseRows(t *testing.T) {
	statement := `Date;Libellé;Montant(EUROS)
10/02/2026;VIREMENT SALAIRE;2000,00
;TOTAL DE LA PERIODE;2000,00
11/02/2026;;50,00
12/02/2026;FRAIS;0,00
garbage line without separators
`
	p := NewBanquePopulaire()
	result, err := p.Parse(context.Background(), strings.NewReader(statement), testMeta(t))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("expected noise rows skipped, got %d transactions", len(result.Transactions))
	}
}
