// Package transform provides the text normalization shared by all parsers:
// mis-encoding repair, localized amount and date parsing, quote-aware line
// splitting, and slug helpers for stable account keys.
package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// mojibakeLead holds the characters UTF-8 multi-byte sequences decode to when
// read back as Windows-1252/Latin-1. Their presence is the signal that a
// string was mis-decoded.
const mojibakeLead = "ÃÂâ"

// RepairEncoding fixes text whose bytes were written as UTF-8 but decoded as
// Windows-1252 ("Libellé" arriving as "LibellÃ©"). It re-encodes the
// characters back to their original bytes and re-decodes them as UTF-8.
//
// The function is applied defensively to every header line, so it must be a
// no-op on text that was never mis-decoded: it only rewrites when the input
// shows mojibake lead characters and the round trip yields valid UTF-8.
func RepairEncoding(s string) string {
	if !strings.ContainsAny(s, mojibakeLead) {
		return s
	}
	raw, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		// Characters outside Windows-1252 mean this was genuine text, not
		// mojibake. Leave it alone.
		return s
	}
	if !utf8.ValidString(raw) {
		return s
	}
	return raw
}

// StripAccents removes diacritics ("Libellé" → "Libelle"). Used for
// accent-insensitive header matching, since vendors are inconsistent about
// accents in exported column names.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader prepares a header line for signature matching: encoding
// repair, accent stripping, and lowercasing.
func NormalizeHeader(s string) string {
	return strings.ToLower(StripAccents(RepairEncoding(s)))
}
