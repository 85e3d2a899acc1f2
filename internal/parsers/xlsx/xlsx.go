// Package xlsx parses Excel statement exports. Sheets vary wildly between
// institutions, so the parser locates a header row by recognizable column
// names instead of assuming a fixed layout.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

const (
	xlsxName = "xlsx"
	// The header row hides below title and account rows in most exports;
	// scanning is bounded so a label cell deep in the data can never be
	// mistaken for a header.
	headerScanRows = 20
)

// xlsx files are zip archives.
var xlsxMagic = []byte("PK")

// Parser extracts transactions from .xlsx workbooks. Stateless, safe for
// concurrent use.
type Parser struct{}

var xlsxInstance = &Parser{}

// New returns the shared parser instance.
func New() *Parser { return xlsxInstance }

// Name returns the parser identifier.
func (p *Parser) Name() string { return xlsxName }

// CanParse matches files with a .xlsx extension and the zip magic bytes.
func (p *Parser) CanParse(path string, header []byte) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx") && bytes.HasPrefix(header, xlsxMagic)
}

// Parse reads the first sheet, locates the header row and extracts
// transactions. A workbook without a recognizable header yields an empty
// result; a corrupt archive fails with ErrUnreadableInput.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open workbook%s: %v", parser.ErrUnreadableInput, parser.FileInfo(meta), err)
	}
	defer f.Close()

	bankName := "Excel Statement"
	if meta != nil && meta.Institution() != "" {
		bankName = meta.Institution()
	}
	result := domain.EmptyResult(bankName, "EUR")

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return result, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return result, nil
	}

	scan := len(rows)
	if scan > headerScanRows {
		scan = headerScanRows
	}
	for i := 0; i < scan; i++ {
		cols := locateColumns(rows[i])
		if !cols.complete() {
			continue
		}
		for _, row := range rows[i+1:] {
			if tx, ok := cols.transaction(row); ok {
				result.Transactions = append(result.Transactions, tx)
			}
		}
		break
	}
	return result, nil
}

// columns holds the positions recognized in a header row, -1 when absent.
type columns struct {
	date, desc, amount, debit, credit int
}

// locateColumns recognizes header cells by localized and English names.
// Debit/credit are matched before the single amount column so headers like
// "Montant débit" land on the right side.
func locateColumns(row []string) columns {
	cols := columns{date: -1, desc: -1, amount: -1, debit: -1, credit: -1}
	for i, cell := range row {
		n := transform.NormalizeHeader(cell)
		switch {
		case n == "":
		case cols.date < 0 && strings.Contains(n, "date"):
			cols.date = i
		case cols.desc < 0 && containsAny(n, "libelle", "description", "label", "intitule", "nature"):
			cols.desc = i
		case cols.debit < 0 && strings.Contains(n, "debit"):
			cols.debit = i
		case cols.credit < 0 && strings.Contains(n, "credit"):
			cols.credit = i
		case cols.amount < 0 && containsAny(n, "montant", "amount"):
			cols.amount = i
		}
	}
	return cols
}

func (c columns) complete() bool {
	if c.date < 0 || c.desc < 0 {
		return false
	}
	return c.amount >= 0 || (c.debit >= 0 && c.credit >= 0)
}

// transaction converts one data row, skipping formatting noise the same way
// the CSV parsers do: bad date, empty label or zero amount drops the row.
func (c columns) transaction(row []string) (domain.ParsedTransaction, bool) {
	date := transform.NormalizeDate(cellAt(row, c.date))
	if !transform.IsISODate(date) {
		return domain.ParsedTransaction{}, false
	}
	description := cellAt(row, c.desc)
	if description == "" {
		return domain.ParsedTransaction{}, false
	}

	if c.amount >= 0 {
		amount, err := transform.ParseAmount(cellAt(row, c.amount))
		if err != nil || amount.IsZero() {
			return domain.ParsedTransaction{}, false
		}
		txType := domain.TxIncome
		if amount.IsNegative() {
			txType = domain.TxExpense
		}
		return buildTransaction(date, description, amount.Abs(), txType)
	}

	if debit, err := transform.ParseAmount(cellAt(row, c.debit)); err == nil && !debit.IsZero() {
		return buildTransaction(date, description, debit.Abs(), domain.TxExpense)
	}
	if credit, err := transform.ParseAmount(cellAt(row, c.credit)); err == nil && !credit.IsZero() {
		return buildTransaction(date, description, credit.Abs(), domain.TxIncome)
	}
	return domain.ParsedTransaction{}, false
}

func buildTransaction(date, description string, amount decimal.Decimal, txType domain.TxType) (domain.ParsedTransaction, bool) {
	tx, err := domain.NewParsedTransaction(date, description, amount, txType)
	if err != nil {
		return domain.ParsedTransaction{}, false
	}
	return tx, true
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
