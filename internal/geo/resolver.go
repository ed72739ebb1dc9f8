package geo

import "strings"

// Resolver is the country-resolution surface handed to the aggregation
// layer. It wraps the alias table and classifies raw country strings that
// resolve to nothing as ignored, so they stay visible instead of silently
// disappearing from views.
type Resolver struct {
	table *AliasTable
}

func NewResolver(t *AliasTable) *Resolver {
	return &Resolver{table: t}
}

// Resolve maps a raw multi-country field to its canonical countries.
func (r *Resolver) Resolve(raw string) []string {
	return r.table.Resolve(raw)
}

// Ignored reports whether a raw country string is non-empty but resolves to
// no canonical country.
func (r *Resolver) Ignored(raw string) bool {
	return strings.TrimSpace(raw) != "" && len(r.table.Resolve(raw)) == 0
}

// GeoReferenced reports whether a canonical country has coordinates.
func (r *Resolver) GeoReferenced(canonical string) bool {
	return r.table.HasCoordinates(canonical)
}
