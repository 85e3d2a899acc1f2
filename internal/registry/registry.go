// Package registry dispatches files to statement parsers. Parsers are tried
// in a fixed order, most distinctive format first, and the first CanParse
// match wins.
package registry

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/parsers/banks"
	"github.com/budgetline/releve/internal/parsers/ofx"
	"github.com/budgetline/releve/internal/parsers/pdf"
	"github.com/budgetline/releve/internal/parsers/xlsx"
)

// sniffLen is how much of the file CanParse gets to look at. Enough for magic
// bytes, OFX markers and any CSV preamble plus header row.
const sniffLen = 512

// Registry holds the ordered parser list.
type Registry struct {
	parsers []parser.Parser
}

// New creates a registry with all built-in parsers. Binary formats go first
// since their magic bytes are unambiguous; CSV institutions follow from most
// to least distinctive signature, ending with the most permissive parser,
// which doubles as the fallback.
func New() *Registry {
	return &Registry{
		parsers: []parser.Parser{
			pdf.New(),
			ofx.New(),
			xlsx.New(),
			banks.NewBoursorama(),
			banks.NewRevolut(),
			banks.NewN26(),
			banks.NewBNPParibas(),
			banks.NewCaisseEpargne(),
			banks.NewFortuneo(),
			banks.NewCreditAgricole(),
			banks.NewSocieteGenerale(),
			banks.NewBanquePopulaire(),
			banks.NewLCL(),
			banks.NewING(),
		},
	}
}

// Register appends a custom parser. It is tried after the built-ins but
// before the fallback kicks in.
func (r *Registry) Register(p parser.Parser) {
	last := len(r.parsers) - 1
	r.parsers = append(r.parsers[:last], p, r.parsers[last])
}

// Detect returns the parser for the given path and sniffed header. It never
// returns nil: when nothing matches, the last (most permissive) parser is
// returned, which degrades gracefully to an empty result on foreign input.
//
// TODO: decide whether unmatched files should report an unsupported-format
// error instead of falling through to the most permissive parser.
func (r *Registry) Detect(path string, header []byte) parser.Parser {
	for _, p := range r.parsers {
		if p.CanParse(path, header) {
			return p
		}
	}
	return r.parsers[len(r.parsers)-1]
}

// FindParser opens the file, sniffs its header and returns the parser
// responsible for it.
func (r *Registry) FindParser(path string) (parser.Parser, error) {
	header, err := sniff(path)
	if err != nil {
		return nil, err
	}
	return r.Detect(path, header), nil
}

// ParseFile runs the full detect-and-parse cycle for one file. A panicking
// parser is contained here and surfaces as an ErrUnreadableInput failure for
// that file alone.
func (r *Registry) ParseFile(ctx context.Context, path string, meta *parser.Metadata) (result *domain.ParseResult, err error) {
	p, err := r.FindParser(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("%w: parser %s panicked on %s: %v", parser.ErrUnreadableInput, p.Name(), path, rec)
		}
	}()
	result, err = p.Parse(ctx, f, meta)
	if err != nil {
		return nil, fmt.Errorf("parser %s: %w", p.Name(), err)
	}
	return result, nil
}

// ListParsers returns the registered parser names in dispatch order.
func (r *Registry) ListParsers() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}

func sniff(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	return header[:n], nil
}
