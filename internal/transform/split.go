package transform

import "strings"

// SplitQuoted splits a single delimited line into fields, honoring a double
// quote as a field-boundary escape: a separator inside quotes does not split
// the field. A doubled quote inside a quoted field yields a literal quote.
//
// Used wherever a vendor quotes fields containing the separator, instead of
// encoding/csv, because vendor files routinely mix quoting styles within one
// file and must be split line by line after header location.
func SplitQuoted(line string, sep rune) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == sep && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	fields = append(fields, field.String())
	return fields
}

// Lines splits raw statement text into lines, tolerating CRLF and a UTF-8 BOM.
func Lines(content string) []string {
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}
