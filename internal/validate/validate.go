// Package validate checks parse results against the invariants every parser
// must uphold. Parsers are trusted but not blindly: a violation here means a
// parser bug, caught before anything is persisted.
package validate

import (
	"fmt"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/transform"
)

// ValidationError is a hard invariant violation.
type ValidationError struct {
	Index   int // transaction index, -1 for result-level errors
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("transaction %d, %s: %s (got %q)", e.Index, e.Field, e.Message, e.Value)
}

// ValidationWarning is a non-critical issue worth surfacing to the user.
type ValidationWarning struct {
	Field   string
	Message string
}

// Result contains everything found in one validation pass.
type Result struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no hard violations were found.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

// ValidateResult checks a parse result: unsigned amounts, known transaction
// types, ISO dates, and the balance/date pairing. A balance without a date is
// a warning, not an error: some statements report one undated.
func ValidateResult(result *domain.ParseResult) *Result {
	out := &Result{}
	if result == nil {
		out.Errors = append(out.Errors, ValidationError{
			Index: -1, Field: "result", Message: "parse result cannot be nil",
		})
		return out
	}

	for i, tx := range result.Transactions {
		if !transform.IsISODate(tx.Date) {
			out.Errors = append(out.Errors, ValidationError{
				Index: i, Field: "date", Value: tx.Date,
				Message: "must be a valid YYYY-MM-DD date",
			})
		}
		if tx.Description == "" {
			out.Errors = append(out.Errors, ValidationError{
				Index: i, Field: "description",
				Message: "cannot be empty",
			})
		}
		if tx.Amount.IsNegative() {
			out.Errors = append(out.Errors, ValidationError{
				Index: i, Field: "amount", Value: tx.Amount.String(),
				Message: "must be an unsigned magnitude; direction belongs in type",
			})
		}
		if !domain.ValidateTxType(tx.Type) {
			out.Errors = append(out.Errors, ValidationError{
				Index: i, Field: "type", Value: string(tx.Type),
				Message: "must be income or expense",
			})
		}
	}

	if result.DetectedBalanceDate != "" {
		if result.DetectedBalance == nil {
			out.Errors = append(out.Errors, ValidationError{
				Index: -1, Field: "detectedBalanceDate", Value: result.DetectedBalanceDate,
				Message: "set without a detected balance",
			})
		} else if !transform.IsISODate(result.DetectedBalanceDate) {
			out.Errors = append(out.Errors, ValidationError{
				Index: -1, Field: "detectedBalanceDate", Value: result.DetectedBalanceDate,
				Message: "must be a valid YYYY-MM-DD date",
			})
		}
	}
	if result.DetectedBalance != nil && result.DetectedBalanceDate == "" {
		out.Warnings = append(out.Warnings, ValidationWarning{
			Field:   "detectedBalance",
			Message: "statement balance has no as-of date; anchor updates will rely on transaction dates",
		})
	}

	return out
}
