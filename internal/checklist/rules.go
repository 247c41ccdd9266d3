// Package checklist derives the pre-start checklist from a visit and its locked baseline.
package checklist

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule adds one checklist entry, or one per room when PerRoom is set, for every part of
// the scope it matches. Empty matchers are ignored; a rule with no matchers only fires
// when Always is set.
type Rule struct {
	ID            string   `yaml:"id"`
	Category      string   `yaml:"category"`
	Label         string   `yaml:"label"`
	Required      bool     `yaml:"required"`
	Always        bool     `yaml:"always"`
	PerRoom       bool     `yaml:"per_room"`
	ItemKeywords  []string `yaml:"item_keywords"`
	RoomTypes     []string `yaml:"room_types"`
	PropertyTypes []string `yaml:"property_types"`
	PromptKey     string   `yaml:"prompt_key"`
	PromptAnswers []string `yaml:"prompt_answers"`
}

type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

//go:embed rules.yaml
var defaultRulesYAML []byte

func DefaultRules() *RuleSet {
	rs, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded checklist rules: %v", err))
	}
	return rs
}

// LoadRules reads rules from path, or returns the embedded defaults when path is empty.
func LoadRules(path string) (*RuleSet, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checklist rules: %w", err)
	}
	return ParseRules(raw)
}

func ParseRules(raw []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("parse checklist rules: %w", err)
	}
	seen := map[string]bool{}
	for i := range rs.Rules {
		r := &rs.Rules[i]
		r.ID = strings.TrimSpace(r.ID)
		r.Label = strings.TrimSpace(r.Label)
		if r.ID == "" || r.Label == "" {
			return nil, fmt.Errorf("checklist rule %d: id and label are required", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate checklist rule %q", r.ID)
		}
		seen[r.ID] = true
		if r.Category == "" {
			r.Category = "general"
		}
		r.ItemKeywords = lowerAll(r.ItemKeywords)
		r.RoomTypes = lowerAll(r.RoomTypes)
		r.PropertyTypes = lowerAll(r.PropertyTypes)
		r.PromptAnswers = lowerAll(r.PromptAnswers)
	}
	if !rs.hasAlways() {
		return nil, fmt.Errorf("checklist rules need at least one always rule")
	}
	return &rs, nil
}

func (rs *RuleSet) hasAlways() bool {
	for _, r := range rs.Rules {
		if r.Always {
			return true
		}
	}
	return false
}

func (r Rule) roomScoped() bool {
	return len(r.ItemKeywords) > 0 || len(r.RoomTypes) > 0
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
