package geo

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func loadDefault(t *testing.T) *AliasTable {
	t.Helper()
	table, err := LoadAliasTable("")
	if err != nil {
		t.Fatalf("LoadAliasTable: %v", err)
	}
	return table
}

func TestResolveMultiCountry(t *testing.T) {
	table := loadDefault(t)

	got := table.Resolve("Mali, Niger")
	want := []string{"Mali", "Niger"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve(%q) = %v, want %v", "Mali, Niger", got, want)
	}
}

func TestResolveCaseAndWhitespace(t *testing.T) {
	table := loadDefault(t)

	tests := []struct {
		in   string
		want []string
	}{
		{"mali", []string{"Mali"}},
		{"  MALI  ", []string{"Mali"}},
		{"burkina", []string{"Burkina Faso"}},
		{"Mali; Tchad", []string{"Mali", "Tchad"}},
		{"Mali, mali, MALI", []string{"Mali"}}, // duplicates collapse
		{"Atlantis", nil},
		{"Mali, Atlantis", []string{"Mali"}}, // unknown tokens dropped
		{"", nil},
		{" , ; ", nil},
	}
	for _, tt := range tests {
		if got := table.Resolve(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Resolve(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKnownAndCoordinates(t *testing.T) {
	table := loadDefault(t)

	if !table.Known("mali") || !table.Known(" Mali ") {
		t.Error("expected 'mali' to be a known country string")
	}
	if table.Known("atlantis") {
		t.Error("did not expect 'atlantis' to be known")
	}
	if !table.HasCoordinates("Mali") {
		t.Error("expected Mali to be geo-referenced")
	}
	if table.HasCoordinates("Atlantis") {
		t.Error("did not expect Atlantis to have coordinates")
	}
	if c, ok := table.Coordinates("Mali"); !ok || len(c) != 2 {
		t.Errorf("Coordinates(Mali) = %v, %v", c, ok)
	}
}

func TestLoadAliasTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.json")
	data := `{"aliases": {"wakanda": "Wakanda"}, "coordinates": {"Wakanda": [0, 0]}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadAliasTable(path)
	if err != nil {
		t.Fatalf("LoadAliasTable: %v", err)
	}
	if got := table.Resolve("Wakanda"); !reflect.DeepEqual(got, []string{"Wakanda"}) {
		t.Errorf("Resolve(Wakanda) = %v", got)
	}
}

func TestLoadAliasTableErrors(t *testing.T) {
	if _, err := LoadAliasTable("/nonexistent/countries.json"); err == nil {
		t.Error("expected error for missing dataset file")
	}

	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte(`{"aliases": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAliasTable(path); err == nil {
		t.Error("expected error for dataset without aliases")
	}
}

func TestResolverIgnored(t *testing.T) {
	r := NewResolver(loadDefault(t))

	if !r.Ignored("Atlantis") {
		t.Error("expected non-empty unresolvable string to be ignored")
	}
	if r.Ignored("Mali") {
		t.Error("Mali resolves, must not be ignored")
	}
	if r.Ignored("") || r.Ignored("   ") {
		t.Error("empty country field is absent, not ignored")
	}
}
