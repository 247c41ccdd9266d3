package capture

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type PromptScope string

const (
	PromptScopeGlobal PromptScope = "global"
	PromptScopeRoom   PromptScope = "room"
)

type PromptDefinition struct {
	Key      string      `yaml:"key" json:"key"`
	Question string      `yaml:"question" json:"question"`
	Scope    PromptScope `yaml:"scope" json:"scope"`
}

// Catalog is the read-only set of structured questions asked during a visit.
type Catalog struct {
	defs  []PromptDefinition
	index map[string]int
}

//go:embed prompts.yaml
var defaultPromptsYAML []byte

func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultPromptsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt catalogue: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalogue from path, or returns the embedded one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt catalogue: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var doc struct {
		Prompts []PromptDefinition `yaml:"prompts"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse prompt catalogue: %w", err)
	}
	c := &Catalog{index: make(map[string]int, len(doc.Prompts))}
	for _, d := range doc.Prompts {
		d.Key = strings.TrimSpace(d.Key)
		if d.Key == "" {
			return nil, fmt.Errorf("prompt without key")
		}
		if _, dup := c.index[d.Key]; dup {
			return nil, fmt.Errorf("duplicate prompt key %q", d.Key)
		}
		if d.Scope == "" {
			d.Scope = PromptScopeGlobal
		}
		c.index[d.Key] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

func (c *Catalog) Lookup(key string) (PromptDefinition, bool) {
	if c == nil {
		return PromptDefinition{}, false
	}
	i, ok := c.index[strings.TrimSpace(key)]
	if !ok {
		return PromptDefinition{}, false
	}
	return c.defs[i], true
}

func (c *Catalog) Definitions() []PromptDefinition {
	if c == nil {
		return nil
	}
	return append([]PromptDefinition{}, c.defs...)
}
