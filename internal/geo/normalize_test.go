package geo

import "testing"

func TestNormalizeEquivalence(t *testing.T) {
	want := Normalize("Bamako")
	for _, in := range []string{"BAMAKO ", "Bâmako", "  bamako", "BaMaKo"} {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Kayes", "kayes"},
		{"kayes ", "kayes"},
		{"Tombouctou", "tombouctou"},
		{"Région  de   Mopti", "region de mopti"},
		{"N'Djaména", "n'djamena"},
		{"\tGao\n", "gao"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
