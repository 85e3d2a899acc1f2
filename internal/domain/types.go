// Package domain defines the canonical transaction model shared by every parser.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxType classifies a transaction's direction. The amount on a
// ParsedTransaction is always the unsigned magnitude; direction lives here.
type TxType string

const (
	TxIncome  TxType = "income"
	TxExpense TxType = "expense"
)

// ValidateTxType checks if the transaction type is one of the two known values.
func ValidateTxType(t TxType) bool {
	return t == TxIncome || t == TxExpense
}

// ParsedTransaction is one canonical transaction produced by a parser from a
// single source row or statement line. Immutable once produced.
type ParsedTransaction struct {
	Date        string          `json:"date"` // ISO format YYYY-MM-DD, no time component
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // unsigned magnitude, >= 0
	Type        TxType          `json:"type"`
}

// NewParsedTransaction creates a validated transaction. The amount must be the
// unsigned magnitude; pass the direction in txType.
func NewParsedTransaction(date, description string, amount decimal.Decimal, txType TxType) (ParsedTransaction, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return ParsedTransaction{}, fmt.Errorf("invalid date format %q: %w", date, err)
	}
	if description == "" {
		return ParsedTransaction{}, fmt.Errorf("description cannot be empty")
	}
	if amount.IsNegative() {
		return ParsedTransaction{}, fmt.Errorf("amount must be non-negative, got %s", amount)
	}
	if !ValidateTxType(txType) {
		return ParsedTransaction{}, fmt.Errorf("invalid transaction type: %s", txType)
	}
	return ParsedTransaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Type:        txType,
	}, nil
}

// SignedAmount reconstructs the source sign convention: expenses are negative.
func (t ParsedTransaction) SignedAmount() decimal.Decimal {
	if t.Type == TxExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// ParseResult is the ephemeral transfer object between a parser and the
// ingestion action. It is produced once per import attempt and never persisted.
//
// When DetectedBalance is set, DetectedBalanceDate should be set too, but
// consumers must tolerate either being independently absent: some vendors
// report a balance without dating it.
type ParseResult struct {
	Transactions        []ParsedTransaction `json:"transactions"`
	DetectedBalance     *decimal.Decimal    `json:"detectedBalance,omitempty"`
	DetectedBalanceDate string              `json:"detectedBalanceDate,omitempty"` // YYYY-MM-DD, empty if unknown
	BankName            string              `json:"bankName"`
	Currency            string              `json:"currency"` // ISO 4217 code
}

// EmptyResult returns a result with no transactions and nulled balance fields.
// Parsers return this for merely-empty or fully-malformed bodies instead of
// erroring; errors are reserved for truly unreadable input.
func EmptyResult(bankName, currency string) *ParseResult {
	return &ParseResult{
		Transactions: []ParsedTransaction{},
		BankName:     bankName,
		Currency:     currency,
	}
}

// SetDetectedBalance records the statement-reported balance. An empty date is
// allowed; see the ParseResult invariant.
func (r *ParseResult) SetDetectedBalance(balance decimal.Decimal, date string) {
	r.DetectedBalance = &balance
	r.DetectedBalanceDate = date
}

// BalanceAnchor is the most recently confirmed (balance, as-of date) pair on an
// account, from which running balances are computed forward. Mutated only by
// the reconciliation policy, never by parsing.
type BalanceAnchor struct {
	Balance decimal.Decimal `json:"balance"`
	AsOf    string          `json:"asOf"` // YYYY-MM-DD
}

// Account is the external account entity the pipeline reconciles against.
type Account struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Currency string         `json:"currency"`
	Anchor   *BalanceAnchor `json:"anchor,omitempty"`
}
