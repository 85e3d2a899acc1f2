package parser

import (
	"fmt"
	"time"
)

// Metadata carries context about the file being parsed: its path, when it was
// picked up, and optional institution/account hints inferred from the
// directory layout by the scanner.
//
// Create instances with NewMetadata; hints are set afterwards. Empty hints are
// not an error since most files arrive without any directory context.
type Metadata struct {
	filePath    string
	institution string
	accountID   string
	detectedAt  time.Time
}

// NewMetadata creates a Metadata instance with validated required fields.
func NewMetadata(filePath string, detectedAt time.Time) (*Metadata, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if detectedAt.IsZero() {
		return nil, fmt.Errorf("detected time cannot be zero")
	}
	return &Metadata{filePath: filePath, detectedAt: detectedAt}, nil
}

// FilePath returns the path of the file being parsed.
func (m *Metadata) FilePath() string { return m.filePath }

// Institution returns the institution hint, or "" when unknown.
func (m *Metadata) Institution() string { return m.institution }

// AccountID returns the account hint, or "" when unknown.
func (m *Metadata) AccountID() string { return m.accountID }

// DetectedAt returns when the file was picked up.
func (m *Metadata) DetectedAt() time.Time { return m.detectedAt }

// SetInstitution sets the institution hint.
func (m *Metadata) SetInstitution(institution string) { m.institution = institution }

// SetAccountID sets the account hint.
func (m *Metadata) SetAccountID(accountID string) { m.accountID = accountID }

// FileInfo formats the file path for error messages, or "" when no metadata
// is available.
func FileInfo(meta *Metadata) string {
	if meta != nil && meta.filePath != "" {
		return fmt.Sprintf(" from %s", meta.filePath)
	}
	return ""
}
