package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	engine, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded returned error: %v", err)
	}
	if len(engine.GetRules()) == 0 {
		t.Fatal("embedded rule set must not be empty")
	}
	for _, rule := range engine.GetRules() {
		if !ValidateCategory(rule.Category) {
			t.Errorf("rule %s carries unknown category %q", rule.Name, rule.Category)
		}
	}
}

func TestMatch_PriorityOrder(t *testing.T) {
	yaml := `rules:
  - name: low
    pattern: "salaire"
    match_type: contains
    priority: 10
    category: other
  - name: high
    pattern: "vir sepa salaire"
    match_type: contains
    priority: 100
    category: salary
`
	engine, err := NewEngine([]byte(yaml))
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}

	result, ok := engine.Match("VIR SEPA SALAIRE FEVRIER")
	if !ok {
		t.Fatal("expected a match")
	}
	if result.RuleName != "high" {
		t.Errorf("higher priority rule must win, got %s", result.RuleName)
	}
	if result.Category != "salary" {
		t.Errorf("category = %q, want salary", result.Category)
	}
}

func TestMatch_ExactVsContains(t *testing.T) {
	yaml := `rules:
  - name: exact
    pattern: "cotisation carte"
    match_type: exact
    priority: 50
    category: fees
`
	engine, err := NewEngine([]byte(yaml))
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}

	if _, ok := engine.Match("  Cotisation Carte  "); !ok {
		t.Error("exact match should be case-insensitive and trimmed")
	}
	if _, ok := engine.Match("COTISATION CARTE VISA PREMIER"); ok {
		t.Error("exact match must not fire on a longer description")
	}
}

func TestCategorize_DefaultsToOther(t *testing.T) {
	engine, err := LoadEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	if got := engine.Categorize("PAIEMENT CHEZ UN MARCHAND INCONNU XYZ"); got != "other" {
		t.Errorf("unmatched description should categorize as other, got %q", got)
	}
	if got := engine.Categorize("PRLV SEPA EDF CLIENTS"); got != "utilities" {
		t.Errorf("EDF should categorize as utilities, got %q", got)
	}
}

func TestNewEngine_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{
			name: "unknown category",
			yaml: `rules:
  - name: bad
    pattern: "x"
    match_type: contains
    priority: 10
    category: cryptocurrency
`,
			wantSub: "invalid category",
		},
		{
			name: "priority out of range",
			yaml: `rules:
  - name: bad
    pattern: "x"
    match_type: contains
    priority: 1000
    category: other
`,
			wantSub: "priority",
		},
		{
			name: "bad match type",
			yaml: `rules:
  - name: bad
    pattern: "x"
    match_type: regex
    priority: 10
    category: other
`,
			wantSub: "match_type",
		},
		{
			name: "empty pattern",
			yaml: `rules:
  - name: bad
    pattern: "   "
    match_type: contains
    priority: 10
    category: other
`,
			wantSub: "pattern",
		},
		{
			name:    "malformed yaml",
			yaml:    "rules:\n  - name: [unclosed",
			wantSub: "YAML",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `rules:
  - name: rent
    pattern: "loyer"
    match_type: contains
    priority: 10
    category: housing
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	engine, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile returned error: %v", err)
	}
	if got := engine.Categorize("PRLV LOYER AVRIL"); got != "housing" {
		t.Errorf("Categorize = %q, want housing", got)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("missing file must error")
	}
}
