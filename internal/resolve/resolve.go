// Package resolve maps free text onto canonical catalog location names.
package resolve

import (
	"strings"

	"github.com/XavierCollard23/LONDON/internal/catalog"
)

// Resolver finds catalog locations mentioned in text via normalized
// substring matching over the alias index.
type Resolver struct {
	cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// Locations scans lines in order and returns canonical names, first mention
// first, without duplicates. One line can contribute several names.
func (r *Resolver) Locations(lines []string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, line := range lines {
		norm := catalog.Normalize(line)
		if norm == "" {
			continue
		}
		for _, a := range r.cat.Aliases() {
			if seen[a.Name] {
				continue
			}
			if strings.Contains(norm, a.Norm) {
				seen[a.Name] = true
				found = append(found, a.Name)
			}
		}
	}
	return found
}
