package ml

import "testing"

func TestAlignOrderAndZeroFill(t *testing.T) {
	schema, err := NewSchema([]string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}

	features := map[string]float64{
		"c":     3,
		"a":     1,
		"extra": 99, // not in schema, must be dropped
	}
	vector := Align(features, schema)

	want := []float64{1, 0, 3, 0}
	if len(vector) != len(want) {
		t.Fatalf("expected length %d, got %d", len(want), len(vector))
	}
	for i := range want {
		if vector[i] != want[i] {
			t.Fatalf("position %d: expected %v, got %v", i, want[i], vector[i])
		}
	}
}

func TestAlignIdempotent(t *testing.T) {
	schema, err := NewSchema([]string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}

	vector := Align(map[string]float64{"y": 2, "z": 7}, schema)

	asMap := make(map[string]float64, schema.Len())
	for i, name := range schema.Columns() {
		asMap[name] = vector[i]
	}
	again := Align(asMap, schema)

	for i := range vector {
		if vector[i] != again[i] {
			t.Fatalf("position %d changed on realignment: %v != %v", i, vector[i], again[i])
		}
	}
}
