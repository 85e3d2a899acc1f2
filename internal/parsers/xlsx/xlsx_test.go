package xlsx

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
)

func testMeta(t *testing.T) *parser.Metadata {
	t.Helper()
	meta, err := parser.NewMetadata("statement.xlsx", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return meta
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCanParse(t *testing.T) {
	p := New()
	tests := []struct {
		name   string
		path   string
		header []byte
		want   bool
	}{
		{name: "xlsx with magic", path: "export.xlsx", header: []byte("PK\x03\x04"), want: true},
		{name: "uppercase extension", path: "EXPORT.XLSX", header: []byte("PK\x03\x04"), want: true},
		{name: "zip magic wrong extension", path: "export.zip", header: []byte("PK\x03\x04"), want: false},
		{name: "xlsx extension non-zip content", path: "export.xlsx", header: []byte("Date;Montant"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.CanParse(tt.path, tt.header); got != tt.want {
				t.Errorf("CanParse(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParse_SingleAmountSheet(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Relevé de compte"},
		{},
		{"Date", "Libellé", "Montant"},
		{"10/02/2026", "VIREMENT SALAIRE", "2000,00"},
		{"12/02/2026", "PRELEVEMENT EDF", "-120,50"},
		{"pas une date", "BRUIT", "1,00"},
	})

	result, err := New().Parse(context.Background(), bytes.NewReader(data), testMeta(t))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}
	if tx := result.Transactions[0]; tx.Type != domain.TxIncome || tx.Amount.StringFixed(2) != "2000.00" || tx.Date != "2026-02-10" {
		t.Errorf("unexpected first transaction: %+v", tx)
	}
	if tx := result.Transactions[1]; tx.Type != domain.TxExpense || tx.Amount.StringFixed(2) != "120.50" {
		t.Errorf("negative amount should become an expense magnitude: %+v", tx)
	}
}

func TestParse_DebitCreditSheet(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Date", "Nature de l'opération", "Débit", "Crédit"},
		{"10/02/2026", "VIREMENT SALAIRE", "", "2000,00"},
		{"12/02/2026", "PRELEVEMENT EDF", "120,50", ""},
	})

	result, err := New().Parse(context.Background(), bytes.NewReader(data), testMeta(t))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}
	if result.Transactions[0].Type != domain.TxIncome {
		t.Errorf("credit column row should be income, got %s", result.Transactions[0].Type)
	}
	if result.Transactions[1].Type != domain.TxExpense {
		t.Errorf("debit column row should be expense, got %s", result.Transactions[1].Type)
	}
}

func TestParse_NoRecognizableHeader(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Colonne A", "Colonne B"},
		{"1", "2"},
	})

	result, err := New().Parse(context.Background(), bytes.NewReader(data), testMeta(t))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(result.Transactions) != 0 {
		t.Errorf("workbook without a header row must yield an empty result, got %d transactions", len(result.Transactions))
	}
}

func TestParse_CorruptArchive(t *testing.T) {
	_, err := New().Parse(context.Background(), bytes.NewReader([]byte("PK\x03\x04 but not a zip")), testMeta(t))
	if err == nil {
		t.Fatal("expected an error for a corrupt archive")
	}
	if !errors.Is(err, parser.ErrUnreadableInput) {
		t.Errorf("error should wrap ErrUnreadableInput, got %v", err)
	}
}

func TestLocateColumns_DebitBeforeAmount(t *testing.T) {
	cols := locateColumns([]string{"Date", "Libellé", "Montant débit", "Montant crédit"})
	if cols.debit != 2 || cols.credit != 3 {
		t.Errorf("debit/credit should win over the amount match: %+v", cols)
	}
	if cols.amount != -1 {
		t.Errorf("no plain amount column in this header, got index %d", cols.amount)
	}
}
