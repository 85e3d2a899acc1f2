package domain

import "fmt"

// Separators accepted by the generic column-mapping parser.
const (
	SeparatorSemicolon = ";"
	SeparatorComma     = ","
	SeparatorTab       = "\t"
)

// DateFormats enumerates the date layouts a user can pick during mapping.
// Keys are the user-facing names; values are Go time layouts.
var DateFormats = map[string]string{
	"DD/MM/YYYY": "02/01/2006",
	"MM/DD/YYYY": "01/02/2006",
	"YYYY-MM-DD": "2006-01-02",
	"DD-MM-YYYY": "02-01-2006",
	"DD.MM.YYYY": "02.01.2006",
}

// ColumnMapping is the user-confirmed correspondence between a delimited
// file's column headers and the semantic fields the pipeline needs.
//
// Exactly one of AmountColumn or the (DebitColumn, CreditColumn) pair must be
// configured; Validate enforces this before any row is processed.
type ColumnMapping struct {
	DateColumn        string `json:"dateColumn" yaml:"date_column"`
	DescriptionColumn string `json:"descriptionColumn" yaml:"description_column"`
	AmountColumn      string `json:"amountColumn,omitempty" yaml:"amount_column,omitempty"`
	DebitColumn       string `json:"debitColumn,omitempty" yaml:"debit_column,omitempty"`
	CreditColumn      string `json:"creditColumn,omitempty" yaml:"credit_column,omitempty"`
	Separator         string `json:"separator" yaml:"separator"`
	DateFormat        string `json:"dateFormat" yaml:"date_format"` // key into DateFormats
}

// HasAmountColumn reports whether the mapping uses a single signed amount column.
func (m ColumnMapping) HasAmountColumn() bool {
	return m.AmountColumn != ""
}

// HasDebitCredit reports whether the mapping uses separate debit/credit columns.
func (m ColumnMapping) HasDebitCredit() bool {
	return m.DebitColumn != "" && m.CreditColumn != ""
}

// Validate rejects structurally invalid mappings with a specific reason so the
// problem surfaces before parsing begins, not row by row.
func (m ColumnMapping) Validate() error {
	if m.DateColumn == "" {
		return fmt.Errorf("mapping is missing the date column")
	}
	if m.DescriptionColumn == "" {
		return fmt.Errorf("mapping is missing the description column")
	}
	hasAmount := m.HasAmountColumn()
	hasPair := m.DebitColumn != "" || m.CreditColumn != ""
	switch {
	case hasAmount && hasPair:
		return fmt.Errorf("mapping configures both an amount column and debit/credit columns; exactly one is allowed")
	case !hasAmount && !hasPair:
		return fmt.Errorf("mapping configures neither an amount column nor debit/credit columns; exactly one is required")
	case !hasAmount && m.DebitColumn == "":
		return fmt.Errorf("mapping is missing the debit column")
	case !hasAmount && m.CreditColumn == "":
		return fmt.Errorf("mapping is missing the credit column")
	}
	switch m.Separator {
	case SeparatorSemicolon, SeparatorComma, SeparatorTab:
	default:
		return fmt.Errorf("unsupported separator %q (allowed: semicolon, comma, tab)", m.Separator)
	}
	if _, ok := DateFormats[m.DateFormat]; !ok {
		return fmt.Errorf("unsupported date format %q", m.DateFormat)
	}
	return nil
}

// Layout returns the Go time layout for the mapping's date format. Validate
// must have succeeded first.
func (m ColumnMapping) Layout() string {
	return DateFormats[m.DateFormat]
}
