package generic

import (
	"strings"
	"testing"

	"github.com/budgetline/releve/internal/domain"
)

func TestParseWithMapping_DebitCredit(t *testing.T) {
	content := `Date;Libellé;Débit;Crédit
10/02/2026;VIREMENT SALAIRE;;2000,00
12/02/2026;PRELEVEMENT EDF;120,50;
`
	mapping := domain.ColumnMapping{
		DateColumn:        "Date",
		DescriptionColumn: "Libellé",
		DebitColumn:       "Débit",
		CreditColumn:      "Crédit",
		Separator:         domain.SeparatorSemicolon,
		DateFormat:        "DD/MM/YYYY",
	}

	result, err := ParseWithMapping(content, mapping)
	if err != nil {
		t.Fatalf("ParseWithMapping returned error: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}
	if tx := result.Transactions[0]; tx.Type != domain.TxIncome || tx.Amount.StringFixed(2) != "2000.00" {
		t.Errorf("credit row should be income of 2000.00, got %+v", tx)
	}
	if tx := result.Transactions[1]; tx.Type != domain.TxExpense || tx.Amount.StringFixed(2) != "120.50" {
		t.Errorf("debit row should be expense of 120.50, got %+v", tx)
	}
}

func TestParseWithMapping_SingleAmount(t *testing.T) {
	content := "Date,Description,Amount\n02/10/2026,Salary,2000.00\n02/12/2026,EDF,-120.50\nbadrow\n02/13/2026,,50.00\n"
	mapping := domain.ColumnMapping{
		DateColumn:        "date",
		DescriptionColumn: "DESCRIPTION",
		AmountColumn:      "Amount",
		Separator:         domain.SeparatorComma,
		DateFormat:        "MM/DD/YYYY",
	}

	result, err := ParseWithMapping(content, mapping)
	if err != nil {
		t.Fatalf("ParseWithMapping returned error: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions with noise skipped, got %d", len(result.Transactions))
	}
	if result.Transactions[0].Date != "2026-02-10" {
		t.Errorf("date parsed with wrong layout: %q", result.Transactions[0].Date)
	}
}

func TestParseWithMapping_InvalidMapping(t *testing.T) {
	base := domain.ColumnMapping{
		DateColumn:        "Date",
		DescriptionColumn: "Libellé",
		Separator:         domain.SeparatorSemicolon,
		DateFormat:        "DD/MM/YYYY",
	}

	tests := []struct {
		name    string
		mutate  func(*domain.ColumnMapping)
		wantSub string
	}{
		{
			name:    "neither amount nor pair",
			mutate:  func(m *domain.ColumnMapping) {},
			wantSub: "neither",
		},
		{
			name: "both amount and pair",
			mutate: func(m *domain.ColumnMapping) {
				m.AmountColumn = "Montant"
				m.DebitColumn = "Débit"
				m.CreditColumn = "Crédit"
			},
			wantSub: "both",
		},
		{
			name: "missing credit column",
			mutate: func(m *domain.ColumnMapping) {
				m.DebitColumn = "Débit"
			},
			wantSub: "credit column",
		},
		{
			name: "missing date column",
			mutate: func(m *domain.ColumnMapping) {
				m.AmountColumn = "Montant"
				m.DateColumn = ""
			},
			wantSub: "date column",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base
			tt.mutate(&m)
			_, err := ParseWithMapping("Date;Libellé;Montant\n", m)
			if err == nil {
				t.Fatal("expected error for invalid mapping")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestParseWithMapping_ColumnNotInHeader(t *testing.T) {
	mapping := domain.ColumnMapping{
		DateColumn:        "Date",
		DescriptionColumn: "Libellé",
		AmountColumn:      "Montant",
		Separator:         domain.SeparatorSemicolon,
		DateFormat:        "DD/MM/YYYY",
	}
	_, err := ParseWithMapping("Date;Autre;Chose\n", mapping)
	if err == nil || !strings.Contains(err.Error(), "not found in file header") {
		t.Errorf("expected column resolution error, got %v", err)
	}
}
