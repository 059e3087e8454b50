// Package catalog describes the documents a viewer offers for selection.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	errorReadCatalog    = "failed to read catalog: %w"
	errorDecodeCatalog  = "failed to decode catalog: %w"
	errorDuplicateEntry = "duplicate catalog entry %q"
	errorMissingField   = "catalog entry %d: %s is required"
	errorUnknownDefault = "default entry %q is not in the catalog"
)

// ErrNotFound is returned by Lookup for an unknown entry name.
var ErrNotFound = errors.New("catalog entry not found")

// Option is one selectable document.
type Option struct {
	Name        string `yaml:"name" json:"name"`
	Locator     string `yaml:"locator" json:"locator"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Catalog is the ordered list of documents plus the one selected on start.
type Catalog struct {
	// Default names the entry a new session starts with; empty means the
	// first entry.
	Default string   `yaml:"default,omitempty" json:"default,omitempty"`
	Options []Option `yaml:"documents" json:"documents"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Default: "Mock API",
		Options: []Option{
			{
				Name:        "Mock API",
				Locator:     "/mock-api.yaml",
				Description: "Custom API for Forest tree-structured editor",
			},
			{
				Name:        "Petstore API",
				Locator:     "/petstore-api.yaml",
				Description: "Swagger Petstore example API with pets, store, and users",
			},
		},
	}
}

// LoadCatalog loads a Catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(errorReadCatalog, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf(errorDecodeCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every entry has a unique name and a locator.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Options))
	for i, o := range c.Options {
		if o.Name == "" {
			return fmt.Errorf(errorMissingField, i, "name")
		}
		if o.Locator == "" {
			return fmt.Errorf(errorMissingField, i, "locator")
		}
		if seen[o.Name] {
			return fmt.Errorf(errorDuplicateEntry, o.Name)
		}
		seen[o.Name] = true
	}
	if c.Default != "" && !seen[c.Default] {
		return fmt.Errorf(errorUnknownDefault, c.Default)
	}
	return nil
}

// Lookup returns the entry with the given name.
func (c *Catalog) Lookup(name string) (Option, error) {
	for _, o := range c.Options {
		if o.Name == name {
			return o, nil
		}
	}
	return Option{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Initial returns the entry a new session starts with. ok is false for an
// empty catalog.
func (c *Catalog) Initial() (Option, bool) {
	if c.Default != "" {
		if o, err := c.Lookup(c.Default); err == nil {
			return o, true
		}
	}
	if len(c.Options) == 0 {
		return Option{}, false
	}
	return c.Options[0], true
}
