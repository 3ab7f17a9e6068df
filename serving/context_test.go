package serving

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"housecast/ml"
)

const testSchemaJSON = `{"columns": [
  "honour_1to5",
  "trait_loyal",
  "trait_scheming",
  "region_North",
  "region_South",
  "region_nan",
  "primary_role_Knight",
  "primary_role_nan",
  "alignment_Lawful",
  "alignment_nan",
  "status_Alive",
  "status_nan",
  "species_Human",
  "species_nan"
]}`

// splits on region_North (position 3): North -> Stark, otherwise Lannister
const testModelJSON = `{
  "classes": ["Lannister", "Stark"],
  "nodes": [
    {"feature_idx": 3, "threshold": 0.5, "left_child": 1, "right_child": 2, "class_label": 0, "is_leaf": false},
    {"feature_idx": -1, "threshold": 0, "left_child": -1, "right_child": -1, "class_label": 0, "is_leaf": true},
    {"feature_idx": -1, "threshold": 0, "left_child": -1, "right_child": -1, "class_label": 1, "is_leaf": true}
  ]
}`

func writeArtifacts(t *testing.T) (modelPath, schemaPath string) {
	t.Helper()
	dir := t.TempDir()
	modelPath = filepath.Join(dir, "model.json")
	schemaPath = filepath.Join(dir, "feature_columns.json")
	if err := os.WriteFile(modelPath, []byte(testModelJSON), 0o600); err != nil {
		t.Fatalf("write model: %v", err)
	}
	if err := os.WriteFile(schemaPath, []byte(testSchemaJSON), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return modelPath, schemaPath
}

func loadedContext(t *testing.T) *Context {
	t.Helper()
	modelPath, schemaPath := writeArtifacts(t)
	ctx := NewContext(nil)
	if err := ctx.Load(Config{
		ModelType:  "decision_tree",
		ModelPath:  modelPath,
		SchemaPath: schemaPath,
	}); err != nil {
		t.Fatalf("load: %v", err)
	}
	return ctx
}

func northernRecord() *ml.CharacterRecord {
	loyal := true
	scheming := false
	return &ml.CharacterRecord{
		Region:        "North",
		PrimaryRole:   "Knight",
		Alignment:     "Lawful",
		Status:        "Alive",
		Species:       "Human",
		Honour:        4,
		TraitLoyal:    &loyal,
		TraitScheming: &scheming,
	}
}

func TestPredictBeforeLoad(t *testing.T) {
	ctx := NewContext(nil)
	if ctx.State() != Uninitialized {
		t.Fatalf("expected uninitialized, got %s", ctx.State())
	}
	if _, err := ctx.Predict(northernRecord()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestLoadMissingArtifacts(t *testing.T) {
	ctx := NewContext(nil)
	err := ctx.Load(Config{
		ModelType:  "decision_tree",
		ModelPath:  filepath.Join(t.TempDir(), "absent.json"),
		SchemaPath: filepath.Join(t.TempDir(), "absent.json"),
	})
	if err == nil {
		t.Fatalf("expected load error")
	}
	if ctx.State() != Failed {
		t.Fatalf("expected failed state, got %s", ctx.State())
	}
	if ctx.LoadError() == nil {
		t.Fatalf("expected recorded load error")
	}

	// requests are rejected but the context keeps running
	if _, err := ctx.Predict(northernRecord()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestLoadOnlyOnce(t *testing.T) {
	ctx := loadedContext(t)
	if err := ctx.Load(Config{}); err == nil {
		t.Fatalf("expected error on second load")
	}
	if ctx.State() != Ready {
		t.Fatalf("second load must not change state, got %s", ctx.State())
	}
}

func TestPredict(t *testing.T) {
	ctx := loadedContext(t)
	if !ctx.Ready() {
		t.Fatalf("expected ready context")
	}
	if ctx.Schema() == nil || ctx.Schema().Len() != 14 {
		t.Fatalf("unexpected schema")
	}

	prediction, err := ctx.Predict(northernRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.House != "Stark" {
		t.Fatalf("expected Stark, got %s", prediction.House)
	}
	if prediction.Cached {
		t.Fatalf("first prediction must not be cached")
	}
	if len(prediction.Unknown) != 0 {
		t.Fatalf("unexpected unknown categories: %v", prediction.Unknown)
	}

	southern := northernRecord()
	southern.Region = "South"
	prediction, err = ctx.Predict(southern)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.House != "Lannister" {
		t.Fatalf("expected Lannister, got %s", prediction.House)
	}
}

func TestPredictDeterministicAndCached(t *testing.T) {
	ctx := loadedContext(t)

	first, err := ctx.Predict(northernRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ctx.Predict(northernRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.House != second.House {
		t.Fatalf("identical records produced different labels: %s vs %s", first.House, second.House)
	}
	if !second.Cached {
		t.Fatalf("expected second identical prediction to hit the cache")
	}
}

func TestPredictUnknownCategory(t *testing.T) {
	ctx := loadedContext(t)

	record := northernRecord()
	record.Region = "Essos"
	prediction, err := ctx.Predict(record)
	if err != nil {
		t.Fatalf("unknown category must not raise, got %v", err)
	}
	if len(prediction.Unknown) != 1 || prediction.Unknown[0].Value != "Essos" {
		t.Fatalf("expected unknown Essos, got %v", prediction.Unknown)
	}
	// zero-filled region group scores like the non-North branch
	if prediction.House != "Lannister" {
		t.Fatalf("expected Lannister, got %s", prediction.House)
	}
}
