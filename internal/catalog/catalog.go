// Package catalog provides the read-only component lookup service used to
// resolve type identifiers while decoding designs.
package catalog

import (
	"fmt"
	"sort"

	"shipyard/pkg/domain"
)

// Catalog is an immutable set of type definitions keyed by category and id.
type Catalog struct {
	types map[domain.Category]map[string]domain.TypeDefinition
	order map[domain.Category][]string
}

var _ domain.Catalog = (*Catalog)(nil)

// New builds a catalog from definitions. Each definition must carry its
// category; a repeated id within a category replaces the earlier entry.
func New(defs ...domain.TypeDefinition) (*Catalog, error) {
	c := &Catalog{
		types: make(map[domain.Category]map[string]domain.TypeDefinition),
		order: make(map[domain.Category][]string),
	}
	for _, def := range defs {
		if def.Category == "" {
			return nil, fmt.Errorf("catalog: definition %q has no category", def.ID)
		}
		if def.ID == "" {
			return nil, fmt.Errorf("catalog: %s definition without id", def.Category)
		}
		c.put(def)
	}
	return c, nil
}

func (c *Catalog) put(def domain.TypeDefinition) {
	byID, ok := c.types[def.Category]
	if !ok {
		byID = make(map[string]domain.TypeDefinition)
		c.types[def.Category] = byID
	}
	if _, exists := byID[def.ID]; !exists {
		c.order[def.Category] = append(c.order[def.Category], def.ID)
	}
	def.TechTracks = append([]string(nil), def.TechTracks...)
	byID[def.ID] = def
}

// FindType resolves id within category.
func (c *Catalog) FindType(category domain.Category, id string) (domain.TypeDefinition, bool) {
	if c == nil {
		return domain.TypeDefinition{}, false
	}
	def, ok := c.types[category][id]
	if !ok {
		return domain.TypeDefinition{}, false
	}
	def.TechTracks = append([]string(nil), def.TechTracks...)
	return def, true
}

// List returns the definitions of category in load order.
func (c *Catalog) List(category domain.Category) []domain.TypeDefinition {
	if c == nil {
		return nil
	}
	ids := c.order[category]
	out := make([]domain.TypeDefinition, 0, len(ids))
	for _, id := range ids {
		def, _ := c.FindType(category, id)
		out = append(out, def)
	}
	return out
}

// Categories returns the populated categories sorted by name.
func (c *Catalog) Categories() []domain.Category {
	if c == nil {
		return nil
	}
	out := make([]domain.Category, 0, len(c.types))
	for cat := range c.types {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// withCategory returns a copy of c whose category is replaced by defs.
func (c *Catalog) withCategory(category domain.Category, defs []domain.TypeDefinition) *Catalog {
	next := &Catalog{
		types: make(map[domain.Category]map[string]domain.TypeDefinition, len(c.types)),
		order: make(map[domain.Category][]string, len(c.order)),
	}
	for cat, byID := range c.types {
		if cat == category {
			continue
		}
		next.types[cat] = byID
		next.order[cat] = c.order[cat]
	}
	for _, def := range defs {
		def.Category = category
		next.put(def)
	}
	return next
}
