package domain

import (
	"encoding/json"
	"testing"
)

func TestBatchRequiresPaths(t *testing.T) {
	if _, err := Batch(); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBatchCopiesPaths(t *testing.T) {
	paths := []string{"a.pdf", "b.pdf"}
	input, err := Batch(paths...)
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	paths[0] = "mutated.pdf"
	if input.Paths()[0] != "a.pdf" {
		t.Fatalf("expected batch to own its paths")
	}
	if input.Kind() != InputBatch {
		t.Fatalf("expected batch kind, got %s", input.Kind())
	}
}

func TestInputValidate(t *testing.T) {
	if err := SingleFile(" ").Validate(); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected empty single path to be rejected, got %v", err)
	}
	if err := Directory("").Validate(); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected empty directory to be rejected, got %v", err)
	}
	if err := (ClassificationInput{}).Validate(); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected zero value to be rejected, got %v", err)
	}
	if err := Directory("/data").Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestOutputJSONShapes(t *testing.T) {
	raw, err := json.Marshal(SingleResult(DocumentTypeInvoice))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(raw) != `{"file_class":"invoice"}` {
		t.Fatalf("unexpected single JSON: %s", raw)
	}

	raw, err = json.Marshal(BatchResult(map[string]DocumentType{"a.pdf": DocumentTypeUnknown}))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(raw) != `{"file_classes":{"a.pdf":"other"}}` {
		t.Fatalf("unexpected batch JSON: %s", raw)
	}

	raw, err = json.Marshal(BatchResult(nil))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(raw) != `{"file_classes":{}}` {
		t.Fatalf("unexpected empty batch JSON: %s", raw)
	}
}

func TestParseStrategy(t *testing.T) {
	for raw, want := range map[string]Strategy{
		"filename":  StrategyFilename,
		"zero_shot": StrategyZeroShot,
		"Zero-Shot": StrategyZeroShot,
	} {
		got, err := ParseStrategy(raw)
		if err != nil || got != want {
			t.Fatalf("ParseStrategy(%q) = %q/%v", raw, got, err)
		}
	}
	if _, err := ParseStrategy("bert"); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
