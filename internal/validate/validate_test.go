package validate

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/budgetline/releve/internal/domain"
)

func validResult(t *testing.T) *domain.ParseResult {
	t.Helper()
	result := domain.EmptyResult("Test Bank", "EUR")
	tx, err := domain.NewParsedTransaction("2026-02-10", "VIREMENT SALAIRE", decimal.RequireFromString("2000.00"), domain.TxIncome)
	if err != nil {
		t.Fatal(err)
	}
	result.Transactions = append(result.Transactions, tx)
	result.SetDetectedBalance(decimal.RequireFromString("1500.25"), "2026-02-15")
	return result
}

func TestValidateResult_OK(t *testing.T) {
	out := ValidateResult(validResult(t))
	if !out.OK() {
		t.Errorf("valid result should pass, got errors: %v", out.Errors)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", out.Warnings)
	}
}

func TestValidateResult_Violations(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.ParseResult)
		wantField string
	}{
		{
			name: "non-ISO date",
			mutate: func(r *domain.ParseResult) {
				r.Transactions[0].Date = "10/02/2026"
			},
			wantField: "date",
		},
		{
			name: "empty description",
			mutate: func(r *domain.ParseResult) {
				r.Transactions[0].Description = ""
			},
			wantField: "description",
		},
		{
			name: "signed amount",
			mutate: func(r *domain.ParseResult) {
				r.Transactions[0].Amount = decimal.RequireFromString("-120.50")
			},
			wantField: "amount",
		},
		{
			name: "unknown type",
			mutate: func(r *domain.ParseResult) {
				r.Transactions[0].Type = "transfer"
			},
			wantField: "type",
		},
		{
			name: "balance date without balance",
			mutate: func(r *domain.ParseResult) {
				r.DetectedBalance = nil
			},
			wantField: "detectedBalanceDate",
		},
		{
			name: "non-ISO balance date",
			mutate: func(r *domain.ParseResult) {
				r.DetectedBalanceDate = "15/02/2026"
			},
			wantField: "detectedBalanceDate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validResult(t)
			tt.mutate(result)
			out := ValidateResult(result)
			if out.OK() {
				t.Fatal("expected a validation error")
			}
			if out.Errors[0].Field != tt.wantField {
				t.Errorf("error field = %q, want %q", out.Errors[0].Field, tt.wantField)
			}
			if !strings.Contains(out.Errors[0].Error(), tt.wantField) {
				t.Errorf("Error() should name the field, got %q", out.Errors[0].Error())
			}
		})
	}
}

func TestValidateResult_DatelessBalanceWarns(t *testing.T) {
	result := validResult(t)
	result.DetectedBalanceDate = ""

	out := ValidateResult(result)
	if !out.OK() {
		t.Errorf("dateless balance is not an error, got %v", out.Errors)
	}
	if len(out.Warnings) != 1 {
		t.Errorf("expected exactly one warning, got %v", out.Warnings)
	}
}

func TestValidateResult_Nil(t *testing.T) {
	if ValidateResult(nil).OK() {
		t.Error("nil result must fail validation")
	}
}
