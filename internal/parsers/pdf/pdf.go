// Package pdf reconstructs transactions from PDF account statements. PDF
// statements print a running balance instead of signed amounts, so the parser
// walks the statement lines and derives each transaction from the balance
// delta between consecutive lines.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	pdftext "github.com/ledongthuc/pdf"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
)

const (
	pdfName  = "pdf"
	pdfMagic = "%PDF"
)

// Parser extracts transactions from PDF statements. Stateless, safe for
// concurrent use.
type Parser struct{}

var pdfInstance = &Parser{}

// New returns the shared parser instance.
func New() *Parser { return pdfInstance }

// Name returns the parser identifier.
func (p *Parser) Name() string { return pdfName }

// CanParse matches files with a .pdf extension and the %PDF magic bytes.
func (p *Parser) CanParse(path string, header []byte) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf") && bytes.HasPrefix(header, []byte(pdfMagic))
}

// Parse extracts the statement text and reconstructs transactions from the
// running balance column. Encrypted or damaged documents fail with
// ErrUnreadableInput; a readable document with no recognizable statement
// lines yields an empty result.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading PDF%s: %w", parser.FileInfo(meta), err)
	}

	lines, err := extractLines(data)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot extract text%s: %v", parser.ErrUnreadableInput, parser.FileInfo(meta), err)
	}

	bankName := "PDF Statement"
	if meta != nil && meta.Institution() != "" {
		bankName = meta.Institution()
	}
	return parseStatement(lines, bankName), nil
}

// extractLines pulls the document text page by page, preserving row structure
// so the statement walker sees one printed line per string. An empty string is
// appended after each page; page boundaries must interrupt any transaction
// being accumulated.
//
// The extraction library panics on some malformed documents, so the panic is
// converted into an ordinary error here.
func extractLines(data []byte) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()

	reader, err := pdftext.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var sb strings.Builder
			for _, word := range row.Content {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			lines = append(lines, sb.String())
		}
		lines = append(lines, "")
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("document contains no extractable text")
	}
	return lines, nil
}
