// Package templates ships the curated rule templates users can apply.
package templates

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/rules"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var embedded []byte

// ErrInvalidTemplate reports a template definition that cannot be offered to users.
var ErrInvalidTemplate = errors.New("invalid template")

// catalogFile is the top-level structure of a template YAML file.
type catalogFile struct {
	Templates []model.RuleTemplate `yaml:"templates"`
}

// Catalog is a read-only set of templates keyed by ID.
type Catalog struct {
	byID  map[string]model.RuleTemplate
	order []string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(bytes.NewReader(embedded))
	})
	return defaultCatalog, defaultErr
}

// Load parses and validates a template catalog.
// Unknown keys are rejected so typos surface at load time.
func Load(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}

	c := &Catalog{byID: make(map[string]model.RuleTemplate, len(f.Templates))}
	for i, tmpl := range f.Templates {
		if err := validateTemplate(tmpl); err != nil {
			return nil, fmt.Errorf("template at index %d: %w", i, err)
		}
		if _, dup := c.byID[tmpl.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidTemplate, tmpl.ID)
		}
		c.byID[tmpl.ID] = tmpl
		c.order = append(c.order, tmpl.ID)
	}
	return c, nil
}

func validateTemplate(tmpl model.RuleTemplate) error {
	switch {
	case tmpl.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidTemplate)
	case tmpl.Name == "":
		return fmt.Errorf("%w: %s: missing name", ErrInvalidTemplate, tmpl.ID)
	case !tmpl.Difficulty.IsValid():
		return fmt.Errorf("%w: %s: unknown difficulty %q", ErrInvalidTemplate, tmpl.ID, tmpl.Difficulty)
	case len(tmpl.Rules) == 0:
		return fmt.Errorf("%w: %s: no rules", ErrInvalidTemplate, tmpl.ID)
	}
	for i, in := range tmpl.Rules {
		if _, err := rules.Validate(in); err != nil {
			return fmt.Errorf("%w: %s: rule %d: %w", ErrInvalidTemplate, tmpl.ID, i, err)
		}
	}
	return nil
}

// List returns templates in catalog order, optionally filtered by category.
func (c *Catalog) List(category string) []model.RuleTemplate {
	out := make([]model.RuleTemplate, 0, len(c.order))
	for _, id := range c.order {
		tmpl := c.byID[id]
		if category != "" && tmpl.Category != category {
			continue
		}
		out = append(out, tmpl)
	}
	return out
}

// Get returns the template with the given ID.
func (c *Catalog) Get(id string) (model.RuleTemplate, error) {
	tmpl, ok := c.byID[id]
	if !ok {
		return model.RuleTemplate{}, fmt.Errorf("template %q: %w", id, common.ErrNotFound)
	}
	return tmpl, nil
}

// Categories returns the distinct template categories, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tmpl := range c.byID {
		if !seen[tmpl.Category] {
			seen[tmpl.Category] = true
			out = append(out, tmpl.Category)
		}
	}
	sort.Strings(out)
	return out
}
