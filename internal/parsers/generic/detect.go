// Package generic implements the column-mapping fallback for delimited files
// no institution parser claims: header/delimiter sniffing for the interactive
// mapping step, and replay of a confirmed mapping into transactions.
package generic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/transform"
)

// previewRows bounds the number of data rows returned for human confirmation.
const previewRows = 5

// HeaderDetection is the data contract of the interactive mapping step.
type HeaderDetection struct {
	Headers     []string   `json:"headers"`
	Preview     [][]string `json:"preview"`
	Separator   string     `json:"separator"`
	Fingerprint string     `json:"fingerprint"`
}

// DetectHeaders sniffs a delimited file for the mapping UI: it auto-detects
// the delimiter, splits the header row and a bounded preview, and computes a
// stable fingerprint of the header shape so a previously confirmed mapping
// can be replayed on future files with identical headers.
func DetectHeaders(content string) (*HeaderDetection, error) {
	lines := nonEmptyLines(content)
	if len(lines) == 0 {
		return nil, fmt.Errorf("file contains no data to detect headers from")
	}

	sep := detectSeparator(lines[0])
	headers := splitTrimmed(lines[0], sep)

	preview := make([][]string, 0, previewRows)
	for _, line := range lines[1:] {
		if len(preview) == previewRows {
			break
		}
		preview = append(preview, splitTrimmed(line, sep))
	}

	return &HeaderDetection{
		Headers:     headers,
		Preview:     preview,
		Separator:   string(sep),
		Fingerprint: HeaderFingerprint(headers),
	}, nil
}

// detectSeparator counts candidate delimiters in the header line; the most
// frequent wins. Ties resolve in the fixed order tab, semicolon, comma so the
// choice is deterministic.
func detectSeparator(headerLine string) rune {
	counts := []struct {
		sep   rune
		count int
	}{
		{'\t', strings.Count(headerLine, "\t")},
		{';', strings.Count(headerLine, ";")},
		{',', strings.Count(headerLine, ",")},
	}
	best := counts[0]
	for _, c := range counts[1:] {
		if c.count > best.count {
			best = c
		}
	}
	return best.sep
}

// HeaderFingerprint hashes the lower-cased, pipe-joined header names. Content
// does not participate: the fingerprint recognizes a header shape, not a file.
func HeaderFingerprint(headers []string) string {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}
	sum := sha256.Sum256([]byte(strings.Join(lowered, "|")))
	return hex.EncodeToString(sum[:])
}

func nonEmptyLines(content string) []string {
	var out []string
	for _, line := range transform.Lines(content) {
		line = transform.RepairEncoding(line)
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func splitTrimmed(line string, sep rune) []string {
	fields := transform.SplitQuoted(line, sep)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// separatorRune converts a mapping's separator string to the rune the
// splitter expects.
func separatorRune(sep string) (rune, error) {
	switch sep {
	case domain.SeparatorSemicolon:
		return ';', nil
	case domain.SeparatorComma:
		return ',', nil
	case domain.SeparatorTab:
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported separator %q", sep)
}
