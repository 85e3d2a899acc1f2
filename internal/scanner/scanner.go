// Package scanner walks a directory tree and finds statement files for batch
// import.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/budgetline/releve/internal/parser"
)

// Scanner walks a directory tree and finds statement files.
type Scanner struct {
	rootDir string
}

// New creates a scanner for the given root directory.
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// ScanResult is a found file with the metadata inferred from its location.
type ScanResult struct {
	Path     string
	Metadata *parser.Metadata
}

// Scan walks the directory tree and returns all statement files, in walk
// order. Directory layout {root}/{institution}/{account}/file.ext yields
// institution and account hints on the metadata.
func (s *Scanner) Scan() ([]ScanResult, error) {
	rootDir := expandHome(s.rootDir)

	var results []ScanResult
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isStatementFile(path) {
			return nil
		}

		meta, err := s.extractMetadata(path, rootDir)
		if err != nil {
			return err
		}
		results = append(results, ScanResult{Path: path, Metadata: meta})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return results, nil
}

// statementExtensions are the formats some registered parser can handle.
var statementExtensions = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".txt":  true,
	".xlsx": true,
	".pdf":  true,
	".ofx":  true,
	".qfx":  true,
}

func isStatementFile(path string) bool {
	return statementExtensions[strings.ToLower(filepath.Ext(path))]
}

// extractMetadata derives institution and account hints from the path
// relative to the scan root: {institution}/{account}/file.ext. Files sitting
// directly under the root get no hints.
func (s *Scanner) extractMetadata(filePath, rootDir string) (*parser.Metadata, error) {
	meta, err := parser.NewMetadata(filePath, time.Now())
	if err != nil {
		return nil, err
	}

	relPath, err := filepath.Rel(rootDir, filePath)
	if err != nil {
		return meta, nil
	}
	parts := strings.Split(filepath.ToSlash(relPath), "/")

	if len(parts) >= 2 {
		meta.SetInstitution(normalizeInstitutionName(parts[0]))
	}
	if len(parts) >= 3 {
		meta.SetAccountID(parts[1])
	}
	return meta, nil
}

// normalizeInstitutionName converts a directory name to a readable name:
// "banque_populaire" -> "Banque Populaire".
func normalizeInstitutionName(dirName string) string {
	words := strings.Split(strings.ReplaceAll(dirName, "_", " "), " ")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
