package banks

import (
	"context"
	"io"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// Banque Populaire exports a semicolon CSV with a short preamble carrying the
// statement balance, then the data header:
//
//	Solde;1500,25
//	Date;15/02/2026
//	Date;Libellé;Montant(EUROS)
//	10/02/2026;VIREMENT SALAIRE;2000,00
const (
	bpName      = "banque-populaire"
	bpBankName  = "Banque Populaire"
	bpSignature = "montant(euros)"
	// The balance preamble sits in the first few lines; scanning is bounded
	// so a "Solde" appearing in transaction text is never misread.
	bpBalanceWindow = 8
)

// BanquePopulaireParser parses Banque Populaire CSV exports. Stateless, safe
// for concurrent use.
type BanquePopulaireParser struct{}

var bpInstance = &BanquePopulaireParser{}

// NewBanquePopulaire returns the shared parser instance.
func NewBanquePopulaire() *BanquePopulaireParser { return bpInstance }

// Name returns the parser identifier.
func (p *BanquePopulaireParser) Name() string { return bpName }

// CanParse matches delimited files whose sniffed header carries the
// Montant(EUROS) signature.
func (p *BanquePopulaireParser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, bpSignature)
}

// Parse extracts transactions and the statement balance.
func (p *BanquePopulaireParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(bpBankName, "EUR")

	headerIdx := findHeader(lines, bpSignature)
	if headerIdx < 0 {
		return result, nil
	}

	p.detectBalance(lines, headerIdx, result)

	for _, line := range lines[headerIdx+1:] {
		fields := transform.SplitQuoted(line, ';')
		if len(fields) < 3 {
			continue
		}
		tx, ok := singleAmountRow(field(fields, 0), field(fields, 1), field(fields, 2))
		if !ok {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

// detectBalance scans the bounded preamble window above the data header for
// the "Solde" and "Date" lines.
func (p *BanquePopulaireParser) detectBalance(lines []string, headerIdx int, result *domain.ParseResult) {
	window := headerIdx
	if window > bpBalanceWindow {
		window = bpBalanceWindow
	}
	var (
		balanceLine []string
		balanceDate string
	)
	for _, line := range lines[:window] {
		fields := transform.SplitQuoted(line, ';')
		if len(fields) < 2 {
			continue
		}
		switch transform.NormalizeHeader(field(fields, 0)) {
		case "solde":
			balanceLine = fields
		case "date":
			if d := transform.NormalizeDate(field(fields, 1)); transform.IsISODate(d) {
				balanceDate = d
			}
		}
	}
	if balanceLine == nil {
		return
	}
	if balance, _ := amountAndDate(balanceLine[1:]); balance != nil {
		result.SetDetectedBalance(*balance, balanceDate)
	}
}
