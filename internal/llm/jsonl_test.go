package llm

import "testing"

func TestDecodeLines(t *testing.T) {
	raw := `{"index": 0, "translation": "bonjour"}
not json at all
{"index": 1, "translation": "salut"}

[1, 2, 3]
{"index": 2}`

	objects, skipped := DecodeLines(raw)
	if len(objects) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(objects))
	}
	if skipped != 2 {
		t.Errorf("expected 2 skipped lines, got %d", skipped)
	}
}

func TestDecodeLinesEmpty(t *testing.T) {
	objects, skipped := DecodeLines("")
	if len(objects) != 0 || skipped != 0 {
		t.Errorf("expected nothing from empty input, got %d objects, %d skipped", len(objects), skipped)
	}
}

func TestIntField(t *testing.T) {
	obj := map[string]any{"index": float64(3), "frac": 1.5, "name": "x"}

	if v, ok := IntField(obj, "index"); !ok || v != 3 {
		t.Errorf("IntField(index) = %d, %v", v, ok)
	}
	if _, ok := IntField(obj, "frac"); ok {
		t.Error("non-integral number must be rejected")
	}
	if _, ok := IntField(obj, "name"); ok {
		t.Error("string must be rejected")
	}
	if _, ok := IntField(obj, "missing"); ok {
		t.Error("missing key must be rejected")
	}
}

func TestStringField(t *testing.T) {
	obj := map[string]any{"translation": "bonjour", "index": float64(1)}

	if v, ok := StringField(obj, "translation"); !ok || v != "bonjour" {
		t.Errorf("StringField(translation) = %q, %v", v, ok)
	}
	if _, ok := StringField(obj, "index"); ok {
		t.Error("number must be rejected")
	}
}
