package generic

import (
	"fmt"
	"strings"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/transform"
)

// ParseWithMapping replays a user-confirmed column mapping over the file
// content. The mapping is validated before any row is touched; each mapped
// column name is re-resolved to a positional index against the file's actual
// header row, not the preview the user confirmed against.
//
// Rows missing a required date or description are skipped, never errors: by
// the time a mapping exists the file shape is known, and stragglers are
// formatting noise.
func ParseWithMapping(content string, mapping domain.ColumnMapping) (*domain.ParseResult, error) {
	if err := mapping.Validate(); err != nil {
		return nil, fmt.Errorf("invalid column mapping: %w", err)
	}
	sep, err := separatorRune(mapping.Separator)
	if err != nil {
		return nil, err
	}

	lines := nonEmptyLines(content)
	result := domain.EmptyResult("Generic CSV", "EUR")
	if len(lines) == 0 {
		return result, nil
	}

	headers := splitTrimmed(lines[0], sep)
	dateCol, err := resolveColumn(headers, mapping.DateColumn)
	if err != nil {
		return nil, err
	}
	descCol, err := resolveColumn(headers, mapping.DescriptionColumn)
	if err != nil {
		return nil, err
	}

	var amountCol, debitCol, creditCol int
	if mapping.HasAmountColumn() {
		if amountCol, err = resolveColumn(headers, mapping.AmountColumn); err != nil {
			return nil, err
		}
	} else {
		if debitCol, err = resolveColumn(headers, mapping.DebitColumn); err != nil {
			return nil, err
		}
		if creditCol, err = resolveColumn(headers, mapping.CreditColumn); err != nil {
			return nil, err
		}
	}

	layout := mapping.Layout()
	for _, line := range lines[1:] {
		fields := splitTrimmed(line, sep)

		date, ok := transform.ParseDateLayout(cell(fields, dateCol), layout)
		if !ok {
			continue
		}
		description := cell(fields, descCol)
		if description == "" {
			continue
		}

		var tx domain.ParsedTransaction
		if mapping.HasAmountColumn() {
			tx, ok = singleAmountTransaction(date, description, cell(fields, amountCol))
		} else {
			tx, ok = debitCreditTransaction(date, description, cell(fields, debitCol), cell(fields, creditCol))
		}
		if !ok {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

// resolveColumn finds the position of a mapped column name in the actual
// header row, case- and accent-insensitively.
func resolveColumn(headers []string, name string) (int, error) {
	want := transform.NormalizeHeader(strings.TrimSpace(name))
	for i, h := range headers {
		if transform.NormalizeHeader(h) == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("mapped column %q not found in file header", name)
}

func cell(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func singleAmountTransaction(date, description, amountStr string) (domain.ParsedTransaction, bool) {
	amount, err := transform.ParseAmount(amountStr)
	if err != nil || amount.IsZero() {
		return domain.ParsedTransaction{}, false
	}
	txType := domain.TxIncome
	if amount.IsNegative() {
		txType = domain.TxExpense
	}
	tx, err := domain.NewParsedTransaction(date, description, amount.Abs(), txType)
	if err != nil {
		return domain.ParsedTransaction{}, false
	}
	return tx, true
}

func debitCreditTransaction(date, description, debitStr, creditStr string) (domain.ParsedTransaction, bool) {
	if debit, err := transform.ParseAmount(debitStr); err == nil && !debit.IsZero() {
		tx, err := domain.NewParsedTransaction(date, description, debit.Abs(), domain.TxExpense)
		if err != nil {
			return domain.ParsedTransaction{}, false
		}
		return tx, true
	}
	if credit, err := transform.ParseAmount(creditStr); err == nil && !credit.IsZero() {
		tx, err := domain.NewParsedTransaction(date, description, credit.Abs(), domain.TxIncome)
		if err != nil {
			return domain.ParsedTransaction{}, false
		}
		return tx, true
	}
	return domain.ParsedTransaction{}, false
}
