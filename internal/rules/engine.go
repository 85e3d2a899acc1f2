// Package rules provides a YAML-based rules engine for transaction categorization.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embeddedRules []byte

// MatchType defines how patterns are matched against transaction descriptions.
type MatchType string

const (
	// MatchTypeExact requires the pattern to match the entire description.
	MatchTypeExact MatchType = "exact"
	// MatchTypeContains requires the pattern to be a substring of the description.
	MatchTypeContains MatchType = "contains"
)

// Categories a rule may assign. Kept small on purpose: the pipeline itself is
// category-agnostic, these only enrich previews.
var Categories = []string{
	"salary",
	"groceries",
	"restaurants",
	"transport",
	"housing",
	"utilities",
	"insurance",
	"health",
	"leisure",
	"shopping",
	"transfers",
	"fees",
	"other",
}

// ValidateCategory checks the category against the known set.
func ValidateCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Rule represents a single categorization rule. Create via YAML loading
// (NewEngine, LoadEmbedded, LoadFromFile), which validates every invariant:
// priority in [0,999], non-empty pattern, known match type and category.
type Rule struct {
	Name      string    `yaml:"name"`
	Pattern   string    `yaml:"pattern"`
	MatchType MatchType `yaml:"match_type"`
	Priority  int       `yaml:"priority"`
	Category  string    `yaml:"category"`
}

// RuleSet represents the top-level YAML structure.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Engine performs rule matching on transaction descriptions.
type Engine struct {
	rules []Rule // sorted by priority, highest first
}

// MatchResult contains the result of applying a rule.
type MatchResult struct {
	Category string
	RuleName string // for debugging
}

// NewEngine creates a rules engine from YAML data.
func NewEngine(rulesData []byte) (*Engine, error) {
	var ruleSet RuleSet
	if err := yaml.Unmarshal(rulesData, &ruleSet); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules (check syntax, indentation, and field names): %w", err)
	}

	for i, rule := range ruleSet.Rules {
		if !ValidateCategory(rule.Category) {
			return nil, fmt.Errorf("rule %d (%s): invalid category %q", i, rule.Name, rule.Category)
		}
		if rule.Priority < 0 || rule.Priority > 999 {
			return nil, fmt.Errorf("rule %d (%s): priority must be in [0,999], got %d", i, rule.Name, rule.Priority)
		}
		if rule.MatchType != MatchTypeExact && rule.MatchType != MatchTypeContains {
			return nil, fmt.Errorf("rule %d (%s): invalid match_type %q (must be 'exact' or 'contains')", i, rule.Name, rule.MatchType)
		}
		if strings.TrimSpace(rule.Pattern) == "" {
			return nil, fmt.Errorf("rule %d (%s): pattern cannot be empty", i, rule.Name)
		}
	}

	// Stable sort preserves YAML file order for equal priorities, which keeps
	// matching deterministic.
	sortedRules := make([]Rule, len(ruleSet.Rules))
	copy(sortedRules, ruleSet.Rules)
	sort.SliceStable(sortedRules, func(i, j int) bool {
		return sortedRules[i].Priority > sortedRules[j].Priority
	})

	return &Engine{rules: sortedRules}, nil
}

// LoadEmbedded loads the embedded rules.yaml file.
func LoadEmbedded() (*Engine, error) {
	engine, err := NewEngine(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules (possible binary corruption): %w", err)
	}
	return engine, nil
}

// LoadFromFile loads rules from a filesystem path.
func LoadFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	engine, err := NewEngine(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return engine, nil
}

// Match applies rules to a transaction description and returns the first
// match in priority order. Returns (nil, false) if no rules match.
func (e *Engine) Match(description string) (*MatchResult, bool) {
	normalizedDesc := strings.ToLower(strings.TrimSpace(description))

	for _, rule := range e.rules {
		normalizedPattern := strings.ToLower(strings.TrimSpace(rule.Pattern))

		matched := false
		switch rule.MatchType {
		case MatchTypeExact:
			matched = normalizedDesc == normalizedPattern
		case MatchTypeContains:
			matched = strings.Contains(normalizedDesc, normalizedPattern)
		}
		if matched {
			return &MatchResult{Category: rule.Category, RuleName: rule.Name}, true
		}
	}
	return nil, false
}

// Categorize returns the category for a description, or "other" when no rule
// matches.
func (e *Engine) Categorize(description string) string {
	if result, ok := e.Match(description); ok {
		return result.Category
	}
	return "other"
}

// GetRules returns a copy of the rules in priority order, for inspection.
func (e *Engine) GetRules() []Rule {
	result := make([]Rule, len(e.rules))
	copy(result, e.rules)
	return result
}
