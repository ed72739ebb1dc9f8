package geo

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed countries.json
var defaultDataset []byte

// AliasTable maps raw country names to canonical ones and canonical names to
// geocoordinates. Loaded once at process start, read-only afterwards.
type AliasTable struct {
	aliases map[string]string
	coords  map[string][]float64
}

type dataset struct {
	Aliases     map[string]string    `json:"aliases"`
	Coordinates map[string][]float64 `json:"coordinates"`
}

// LoadAliasTable reads the country dataset from path. An empty path loads the
// embedded default dataset.
func LoadAliasTable(path string) (*AliasTable, error) {
	data := defaultDataset
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read country dataset: %w", err)
		}
		data = b
	}

	var ds dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse country dataset: %w", err)
	}
	if len(ds.Aliases) == 0 {
		return nil, fmt.Errorf("country dataset has no aliases")
	}

	// Alias lookup is case-insensitive; keys are stored lowercased.
	aliases := make(map[string]string, len(ds.Aliases))
	for k, v := range ds.Aliases {
		aliases[strings.ToLower(strings.TrimSpace(k))] = v
	}

	return &AliasTable{aliases: aliases, coords: ds.Coordinates}, nil
}

// Resolve splits a raw country field on commas and semicolons and maps each
// token to its canonical country. Unknown tokens are dropped; callers that
// need visibility into them should check Known separately. The result is
// duplicate-free, in first-encounter order.
func (t *AliasTable) Resolve(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, token := range splitCountryField(raw) {
		canonical, ok := t.aliases[strings.ToLower(token)]
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	return out
}

// Known reports whether a single raw token resolves to a canonical country.
func (t *AliasTable) Known(token string) bool {
	_, ok := t.aliases[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// HasCoordinates reports whether a canonical country is geo-referenced.
// Only such countries appear in country-centric views.
func (t *AliasTable) HasCoordinates(canonical string) bool {
	_, ok := t.coords[canonical]
	return ok
}

// Coordinates returns the [lat, lng] pair for a canonical country.
func (t *AliasTable) Coordinates(canonical string) ([]float64, bool) {
	c, ok := t.coords[canonical]
	return c, ok
}

func splitCountryField(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
