package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"shipyard/pkg/domain"
)

//go:embed data/default.yaml
var bundledYAML []byte

var (
	bundledOnce    sync.Once
	bundledCatalog *Catalog
	bundledErr     error
)

// Bundled returns the catalog compiled into the binary. The embedded data is
// parsed once; the returned catalog is shared and must not be modified.
func Bundled() *Catalog {
	bundledOnce.Do(func() {
		bundledCatalog, bundledErr = Parse(bundledYAML)
	})
	if bundledErr != nil {
		// The embedded file is part of the build; a parse failure is a
		// packaging bug rather than a runtime condition.
		panic(fmt.Sprintf("catalog: bundled data: %v", bundledErr))
	}
	return bundledCatalog
}

// Parse decodes a multi-category YAML document mapping category names to
// lists of definitions.
func Parse(data []byte) (*Catalog, error) {
	var doc map[domain.Category][]domain.TypeDefinition
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	var defs []domain.TypeDefinition
	for _, cat := range domain.CatalogCategories {
		for _, def := range doc[cat] {
			def.Category = cat
			defs = append(defs, def)
		}
	}
	for cat := range doc {
		if !known(cat) {
			return nil, fmt.Errorf("catalog: unknown category %q", cat)
		}
	}
	return New(defs...)
}

// ParseCategory decodes a single-category YAML list.
func ParseCategory(category domain.Category, data []byte) ([]domain.TypeDefinition, error) {
	var defs []domain.TypeDefinition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", category, err)
	}
	for i := range defs {
		if defs[i].ID == "" {
			return nil, fmt.Errorf("catalog: %s entry %d has no id", category, i)
		}
		defs[i].Category = category
	}
	return defs, nil
}

func known(cat domain.Category) bool {
	for _, c := range domain.CatalogCategories {
		if c == cat {
			return true
		}
	}
	return false
}
