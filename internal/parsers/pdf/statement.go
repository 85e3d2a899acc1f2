package pdf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/transform"
)

// Statement lines carry an operation date, a value date, a label and the new
// running balance:
//
//	SOLDE PRECEDENT AU 31/01/2026                    1 000,00
//	15/02  14/02  VIR SEPA SALAIRE FEVRIER           1 200,00
//	SOLDE ENCOURS AU 28/02/2026                      1 200,00
//
// A transaction's amount is the difference between its running balance and
// the previous one; the sign of the difference decides income vs expense.
// Label continuation lines have no date and no amount and attach to the
// transaction above them.
var (
	// Operation date then value date, day-first, year optional on both.
	txLead = regexp.MustCompile(`^(\d{2}/\d{2}(?:/\d{4})?)\s+\d{2}/\d{2}(?:/\d{4})?\s+(.*\S)\s*$`)

	fullDate = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)

	// A French-formatted amount token, thousands grouped with dots or not
	// grouped at all, optionally split by the text extraction ("1 200,00"
	// arrives as "1" "200,00").
	amountTail    = regexp.MustCompile(`^-?(?:\d{1,3}(?:\.\d{3})+|\d+),\d{2}$`)
	thousandsTail = regexp.MustCompile(`^\d{3}$|^\d{3}(?:\.\d{3})*,\d{2}$`)
	digitGroup    = regexp.MustCompile(`^-?\d{1,3}$`)
)

// Markers, matched against accent-stripped lower-cased lines.
var (
	openingMarkers = []string{"solde precedent", "ancien solde"}
	closingMarkers = []string{"solde encours", "nouveau solde", "solde en fin de periode"}

	// Repeating non-statement text. Any of these interrupts a pending
	// transaction without contributing label text.
	boilerplateMarkers = []string{
		"releve de compte",
		"en cas de desaccord",
		"date valeur",
		"votre conseiller",
		"page ",
	}
)

// pendingTx is a transaction line whose label may still grow from
// continuation lines. It is turned into a ParsedTransaction the moment the
// next structural line appears.
type pendingTx struct {
	date    string
	label   []string
	balance decimal.Decimal
}

type statementWalker struct {
	result  *domain.ParseResult
	running *decimal.Decimal
	pending *pendingTx

	// Year inference for dd/mm dates, seeded by the opening balance date.
	// A month earlier than the opening month means the statement crossed
	// into the next year.
	year  int
	month int
}

// parseStatement reconstructs transactions from extracted statement lines.
// Without an opening balance no delta can be computed, so an unrecognized
// document degrades to an empty result rather than an error.
func parseStatement(lines []string, bankName string) *domain.ParseResult {
	w := &statementWalker{result: domain.EmptyResult(bankName, "EUR")}
	for _, line := range lines {
		w.step(transform.RepairEncoding(line))
	}
	w.flush()
	return w.result
}

func (w *statementWalker) step(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		w.flush()
		return
	}
	// Transaction lines win over markers: a label is free text and may
	// contain any marker word.
	if m := txLead.FindStringSubmatch(trimmed); m != nil {
		w.transaction(m[1], m[2])
		return
	}

	normalized := strings.ToLower(transform.StripAccents(trimmed))
	switch {
	case containsAny(normalized, openingMarkers):
		w.flush()
		w.open(trimmed)
	case containsAny(normalized, closingMarkers):
		w.flush()
		w.close(trimmed)
	case containsAny(normalized, boilerplateMarkers):
		w.flush()
	default:
		w.continuation(trimmed)
	}
}

// open seeds the running balance and the inference year from the opening
// balance line.
func (w *statementWalker) open(line string) {
	fields := strings.Fields(line)
	balance, _ := trailingAmount(fields)
	if balance == nil {
		return
	}
	w.running = balance
	if d := fullDate.FindString(line); d != "" {
		if iso := transform.NormalizeDate(d); transform.IsISODate(iso) {
			w.year, _ = strconv.Atoi(iso[:4])
			w.month, _ = strconv.Atoi(iso[5:7])
		}
	}
}

// close records the closing balance as the statement-reported balance.
func (w *statementWalker) close(line string) {
	fields := strings.Fields(line)
	balance, _ := trailingAmount(fields)
	if balance == nil {
		return
	}
	var date string
	if d := fullDate.FindString(line); d != "" {
		if iso := transform.NormalizeDate(d); transform.IsISODate(iso) {
			date = iso
		}
	}
	w.result.SetDetectedBalance(*balance, date)
	w.running = balance
}

func (w *statementWalker) transaction(datePart, rest string) {
	w.flush()
	fields := strings.Fields(rest)
	balance, labelEnd := trailingAmount(fields)
	if balance == nil {
		return
	}
	label := strings.Join(fields[:labelEnd], " ")
	if label == "" {
		return
	}
	w.pending = &pendingTx{
		date:    w.resolveDate(datePart),
		label:   []string{label},
		balance: *balance,
	}
}

func (w *statementWalker) continuation(line string) {
	if w.pending == nil {
		return
	}
	// A dateless line carrying an amount is a totals row, not label text.
	if balance, _ := trailingAmount(strings.Fields(line)); balance != nil {
		w.flush()
		return
	}
	w.pending.label = append(w.pending.label, line)
}

// flush materializes the pending transaction from the balance delta and
// advances the running balance.
func (w *statementWalker) flush() {
	p := w.pending
	w.pending = nil
	if p == nil || w.running == nil {
		return
	}
	delta := p.balance.Sub(*w.running)
	balance := p.balance
	w.running = &balance
	if delta.IsZero() || p.date == "" {
		return
	}

	txType := domain.TxIncome
	if delta.IsNegative() {
		txType = domain.TxExpense
	}
	tx, err := domain.NewParsedTransaction(p.date, strings.Join(p.label, " "), delta.Abs(), txType)
	if err != nil {
		return
	}
	w.result.Transactions = append(w.result.Transactions, tx)
}

// resolveDate turns a statement date into ISO form, inferring the year for
// dd/mm dates from the opening balance.
func (w *statementWalker) resolveDate(d string) string {
	if iso := transform.NormalizeDate(d); transform.IsISODate(iso) {
		return iso
	}
	if w.year == 0 || len(d) < 5 {
		return ""
	}
	month, err := strconv.Atoi(d[3:5])
	if err != nil {
		return ""
	}
	year := w.year
	if month < w.month {
		year++
	}
	if iso := transform.NormalizeDate(fmt.Sprintf("%s/%d", d, year)); transform.IsISODate(iso) {
		return iso
	}
	return ""
}

// trailingAmount parses the amount token at the end of a token list,
// reassembling thousands groups the extraction split apart. It returns the
// amount and the index where it starts, or nil when the list does not end in
// an amount.
func trailingAmount(fields []string) (*decimal.Decimal, int) {
	last := len(fields) - 1
	if last < 0 || !amountTail.MatchString(fields[last]) {
		return nil, len(fields)
	}
	start := last
	for start > 0 && thousandsTail.MatchString(fields[start]) && digitGroup.MatchString(fields[start-1]) {
		start--
	}
	amount, err := transform.ParseAmount(strings.Join(fields[start:], ""))
	if err != nil {
		return nil, len(fields)
	}
	return &amount, start
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
