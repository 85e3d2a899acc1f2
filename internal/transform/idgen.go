package transform

import (
	"fmt"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a bank or account name to a stable, URL-safe key.
// Examples: "Banque Populaire" → "banque-populaire", "Caisse d'Épargne" →
// "caisse-d-epargne".
func Slugify(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	slug := strings.ToLower(StripAccents(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "", fmt.Errorf("name %q contains no alphanumeric characters", name)
	}
	return slug, nil
}
