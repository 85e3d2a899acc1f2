package banks

import (
	"context"
	"io"
	"strings"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// Caisse d'Épargne exports a semicolon CSV with a bank-details preamble of
// varying length, a period balance line, then debit/credit columns:
//
//	Code de la banque : 14445;Code de l'agence : 00400
//	Solde en fin de période;+1 234,56
//	Date;Numéro d'opération;Libellé;Débit;Crédit;Détail
//	12/02/2026;XX123;PRELEVEMENT EDF;-120,50;;FACTURE 02/2026
const (
	ceName          = "caisse-epargne"
	ceBankName      = "Caisse d'Épargne"
	ceSignature     = "numero d'operation"
	ceBalanceLabel  = "solde en fin de periode"
	ceBalanceWindow = 12
)

// CaisseEpargneParser parses Caisse d'Épargne CSV exports. Stateless, safe
// for concurrent use.
type CaisseEpargneParser struct{}

var ceInstance = &CaisseEpargneParser{}

// NewCaisseEpargne returns the shared parser instance.
func NewCaisseEpargne() *CaisseEpargneParser { return ceInstance }

// Name returns the parser identifier.
func (p *CaisseEpargneParser) Name() string { return ceName }

// CanParse matches delimited files carrying the "Numéro d'opération" column.
func (p *CaisseEpargneParser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, ceSignature)
}

// Parse extracts transactions from the debit/credit pair and the period
// balance from the preamble window.
func (p *CaisseEpargneParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(ceBankName, "EUR")

	headerIdx := findHeader(lines, ceSignature)
	if headerIdx < 0 {
		return result, nil
	}

	window := headerIdx
	if window > ceBalanceWindow {
		window = ceBalanceWindow
	}
	for _, line := range lines[:window] {
		if !strings.Contains(transform.NormalizeHeader(line), ceBalanceLabel) {
			continue
		}
		fields := transform.SplitQuoted(line, ';')
		if balance, date := amountAndDate(fields); balance != nil {
			result.SetDetectedBalance(*balance, date)
			break
		}
	}

	idx := headerIndexes(transform.SplitQuoted(lines[headerIdx], ';'))
	dateCol := colIndex(idx, "date")
	descCol := colIndex(idx, "libelle")
	debitCol := colIndex(idx, "debit")
	creditCol := colIndex(idx, "credit")
	if dateCol < 0 || descCol < 0 || debitCol < 0 || creditCol < 0 {
		return result, nil
	}

	for _, line := range lines[headerIdx+1:] {
		fields := transform.SplitQuoted(line, ';')
		tx, ok := debitCreditRow(field(fields, dateCol), field(fields, descCol),
			field(fields, debitCol), field(fields, creditCol))
		if !ok {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}
