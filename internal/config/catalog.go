package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one syndication feed inside a category.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Catalog is the YAML source catalog structure
// categories:
//
//	top:
//	  - name: Reuters
//	    url: https://...
type Catalog struct {
	Categories map[string][]Source `yaml:"categories"`
}

// LoadCatalog reads the category -> feed list mapping from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cat Catalog
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if len(cat.Categories) == 0 {
		return nil, fmt.Errorf("catalog %s defines no categories", path)
	}
	return &cat, nil
}

// Has reports whether the catalog defines the category.
func (c *Catalog) Has(category string) bool {
	_, ok := c.Categories[category]
	return ok
}

// Sources returns the ordered feed list for a category.
func (c *Catalog) Sources(category string) []Source {
	return c.Categories[category]
}
