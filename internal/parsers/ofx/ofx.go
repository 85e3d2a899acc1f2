// Package ofx parses OFX/QFX statement downloads, both the v1 SGML and v2
// XML flavors.
package ofx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
)

const ofxName = "ofx"

// Parser extracts transactions from OFX/QFX downloads. Stateless, safe for
// concurrent use.
type Parser struct{}

var ofxInstance = &Parser{}

// New returns the shared parser instance.
func New() *Parser { return ofxInstance }

// Name returns the parser identifier.
func (p *Parser) Name() string { return ofxName }

// CanParse matches .ofx/.qfx files carrying an OFX marker in either the v1
// SGML header or the v2 XML prolog.
func (p *Parser) CanParse(path string, header []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".ofx" && ext != ".qfx" {
		return false
	}
	upper := strings.ToUpper(string(header))
	return strings.Contains(upper, "OFXHEADER") ||
		strings.Contains(upper, "<?OFX") ||
		strings.Contains(upper, "<OFX>")
}

// Parse extracts transactions and the ledger balance from the first bank or
// credit card statement in the response. A response without either yields an
// empty result; a document ofxgo cannot decode fails with ErrUnreadableInput.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading OFX content%s: %w", parser.FileInfo(meta), err)
	}

	response, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode OFX%s (%d bytes): %v", parser.ErrUnreadableInput, parser.FileInfo(meta), len(content), err)
	}

	bankName := strings.TrimSpace(response.Signon.Org.String())
	if meta != nil && meta.Institution() != "" {
		bankName = meta.Institution()
	}
	if bankName == "" {
		bankName = "OFX Statement"
	}

	if len(response.Bank) > 0 {
		if stmt, ok := response.Bank[0].(*ofxgo.StatementResponse); ok {
			return bankResult(stmt, bankName), nil
		}
	}
	if len(response.CreditCard) > 0 {
		if stmt, ok := response.CreditCard[0].(*ofxgo.CCStatementResponse); ok {
			return creditCardResult(stmt, bankName), nil
		}
	}
	return domain.EmptyResult(bankName, "EUR"), nil
}

func bankResult(stmt *ofxgo.StatementResponse, bankName string) *domain.ParseResult {
	result := domain.EmptyResult(bankName, currencyOf(stmt.CurDef.String()))
	appendTransactions(result, stmt.BankTranList)
	setLedgerBalance(result, stmt.BalAmt, stmt.DtAsOf.Time.Format("2006-01-02"))
	return result
}

func creditCardResult(stmt *ofxgo.CCStatementResponse, bankName string) *domain.ParseResult {
	result := domain.EmptyResult(bankName, currencyOf(stmt.CurDef.String()))
	appendTransactions(result, stmt.BankTranList)
	setLedgerBalance(result, stmt.BalAmt, stmt.DtAsOf.Time.Format("2006-01-02"))
	return result
}

// appendTransactions converts the OFX transaction list, skipping entries
// missing a usable date, description or amount the same way the CSV parsers
// skip malformed rows.
func appendTransactions(result *domain.ParseResult, tranList *ofxgo.TransactionList) {
	if tranList == nil {
		return
	}
	for _, txn := range tranList.Transactions {
		date := txn.DtPosted.Time
		if date.IsZero() {
			continue
		}

		description := strings.TrimSpace(txn.Name.String())
		if description == "" {
			description = strings.TrimSpace(txn.Memo.String())
		}
		if description == "" {
			continue
		}

		amount, err := decimal.NewFromString(txn.TrnAmt.FloatString(2))
		if err != nil || amount.IsZero() {
			continue
		}
		txType := domain.TxIncome
		if amount.IsNegative() {
			txType = domain.TxExpense
		}

		tx, err := domain.NewParsedTransaction(date.Format("2006-01-02"), description, amount.Abs(), txType)
		if err != nil {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
}

// setLedgerBalance records the statement ledger balance. OFX always carries
// one; a zero as-of date degrades to a dateless balance.
func setLedgerBalance(result *domain.ParseResult, balAmt ofxgo.Amount, asOf string) {
	balance, err := decimal.NewFromString(balAmt.FloatString(2))
	if err != nil {
		return
	}
	if asOf == "0001-01-01" {
		asOf = ""
	}
	result.SetDetectedBalance(balance, asOf)
}

func currencyOf(curDef string) string {
	if curDef == "" {
		return "EUR"
	}
	return curDef
}
