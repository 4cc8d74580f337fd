// Package catalog holds the question templates the generators draw from.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

//go:embed default.json
var defaultCatalog []byte

// File is the on-disk catalog document.
type File struct {
	Version   string             `json:"version"`
	Templates []QuestionTemplate `json:"templates"`
}

// Catalog is an ordered, read-only set of templates. Order matters: it is
// the tie-breaker when two templates have the same usage count.
type Catalog struct {
	version   string
	templates []QuestionTemplate
	byID      map[string]int
}

// New builds a catalog from templates without validating them. Later
// templates with a duplicate id are ignored.
func New(version string, templates ...QuestionTemplate) *Catalog {
	c := &Catalog{
		version: version,
		byID:    make(map[string]int, len(templates)),
	}
	for _, t := range templates {
		if _, dup := c.byID[t.ID]; dup {
			continue
		}
		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c
}

// Load parses and validates a catalog document.
func Load(data []byte) (*Catalog, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	return New(f.Version, f.Templates...), nil
}

// LoadFile reads and validates the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// Default returns the built-in catalog. It panics if the embedded document
// is invalid, which the package tests guard against.
func Default() *Catalog {
	c, err := Load(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// DefaultJSON returns a copy of the embedded catalog document.
func DefaultJSON() []byte {
	return slices.Clone(defaultCatalog)
}

// Version returns the catalog document version.
func (c *Catalog) Version() string { return c.version }

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }

// Templates returns the templates in catalog order.
func (c *Catalog) Templates() []QuestionTemplate {
	return slices.Clone(c.templates)
}

// Get looks a template up by id.
func (c *Catalog) Get(id string) (QuestionTemplate, bool) {
	i, ok := c.byID[id]
	if !ok {
		return QuestionTemplate{}, false
	}
	return c.templates[i], true
}

// Filter returns the templates matching subject, skill area (exact or
// "general") and difficulty at or below level, in catalog order.
func (c *Catalog) Filter(subject, skillArea string, level int) []QuestionTemplate {
	var out []QuestionTemplate
	for _, t := range c.templates {
		if t.Matches(subject, skillArea, level) {
			out = append(out, t)
		}
	}
	return out
}

// Subjects returns the distinct subjects in catalog order.
func (c *Catalog) Subjects() []string {
	var out []string
	for _, t := range c.templates {
		if !slices.Contains(out, t.Subject) {
			out = append(out, t.Subject)
		}
	}
	return out
}

// Marshal encodes the catalog as a document accepted by Load.
func (c *Catalog) Marshal() ([]byte, error) {
	return json.MarshalIndent(File{Version: c.version, Templates: c.templates}, "", "  ")
}
