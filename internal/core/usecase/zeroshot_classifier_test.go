package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

func mustBatch(t *testing.T, paths ...string) domain.ClassificationInput {
	t.Helper()
	input, err := domain.Batch(paths...)
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	return input
}

func TestZeroShotClassifierPicksHighestScore(t *testing.T) {
	extractor := &extractorFake{texts: domain.ExtractedText{"test.pdf": "test text"}}
	scorer := &scorerFake{result: &domain.ScoringResult{
		Scores: []float64{0, 0.4, 0.6},
		Labels: []string{"unknown", "drivers_license", "bank_statement"},
	}}
	classifier := NewZeroShotClassifier(extractor, scorer, nil, nil)

	out, err := classifier.Classify(context.Background(), mustBatch(t, "test.pdf"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got := out.PerFile()["test.pdf"]; got != domain.DocumentTypeBankStatement {
		t.Fatalf("expected bank_statement, got %q", got)
	}
	if scorer.lastText != "test text" {
		t.Fatalf("expected scorer to receive extracted text, got %q", scorer.lastText)
	}
	if len(scorer.labels) != len(domain.AllDocumentTypes()) || scorer.labels[0] != string(domain.DocumentTypeUnknown) {
		t.Fatalf("expected full candidate set including unknown, got %v", scorer.labels)
	}
}

func TestZeroShotClassifierExtractionFailureMapsBatchToUnknown(t *testing.T) {
	extractor := &extractorFake{extractErr: errors.New("test exception")}
	scorer := &scorerFake{}
	observer := &observerFake{}
	classifier := NewZeroShotClassifier(extractor, scorer, observer, nil)

	out, err := classifier.Classify(context.Background(), mustBatch(t, "a.pdf", "b.jpg", "c.png"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	perFile := out.PerFile()
	if len(perFile) != 3 {
		t.Fatalf("expected 3 verdicts, got %d", len(perFile))
	}
	for path, docType := range perFile {
		if docType != domain.DocumentTypeUnknown {
			t.Fatalf("expected unknown for %s, got %q", path, docType)
		}
	}
	if scorer.calls != 0 {
		t.Fatalf("expected no scoring calls, got %d", scorer.calls)
	}
	if len(observer.fallbacks) != 3 {
		t.Fatalf("expected 3 fallback observations, got %d", len(observer.fallbacks))
	}
}

func TestZeroShotClassifierEmptyTextSkipsScoring(t *testing.T) {
	extractor := &extractorFake{texts: domain.ExtractedText{"test.pdf": ""}}
	scorer := &scorerFake{result: &domain.ScoringResult{Labels: []string{"invoice"}, Scores: []float64{1}}}
	classifier := NewZeroShotClassifier(extractor, scorer, nil, nil)

	out, err := classifier.Classify(context.Background(), mustBatch(t, "test.pdf"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got := out.PerFile()["test.pdf"]; got != domain.DocumentTypeUnknown {
		t.Fatalf("expected unknown, got %q", got)
	}
	if scorer.calls != 0 {
		t.Fatalf("expected zero scoring calls, got %d", scorer.calls)
	}
}

func TestZeroShotClassifierMissingKeysInResult(t *testing.T) {
	cases := map[string]*domain.ScoringResult{
		"missing labels": {Scores: []float64{0.4, 0.6}},
		"missing scores": {Labels: []string{"invoice", "other"}},
		"nil result":     nil,
		"length mismatch": {
			Labels: []string{"invoice", "other"},
			Scores: []float64{0.9},
		},
		"unregistered label": {
			Labels: []string{"passport"},
			Scores: []float64{0.9},
		},
	}

	for name, result := range cases {
		t.Run(name, func(t *testing.T) {
			extractor := &extractorFake{texts: domain.ExtractedText{"test.pdf": "test text"}}
			scorer := &scorerFake{result: result}
			observer := &observerFake{}
			classifier := NewZeroShotClassifier(extractor, scorer, observer, nil)

			out, err := classifier.Classify(context.Background(), mustBatch(t, "test.pdf"))
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got := out.PerFile()["test.pdf"]; got != domain.DocumentTypeUnknown {
				t.Fatalf("expected unknown, got %q", got)
			}
			if len(observer.fallbacks) != 1 || observer.fallbacks[0] != fallbackMalformedResult {
				t.Fatalf("expected malformed fallback, got %+v", observer.fallbacks)
			}
		})
	}
}

func TestZeroShotClassifierScorerErrorIsContainedPerFile(t *testing.T) {
	extractor := &extractorFake{texts: domain.ExtractedText{
		"good.pdf": "good text",
		"bad.pdf":  "bad text",
	}}
	scorer := &scorerFake{byText: map[string]*domain.ScoringResult{
		"good text": {Labels: []string{"invoice", "other"}, Scores: []float64{0.8, 0.2}},
		"bad text":  {Labels: []string{}, Scores: []float64{}},
	}}
	classifier := NewZeroShotClassifier(extractor, scorer, nil, nil)

	out, err := classifier.Classify(context.Background(), mustBatch(t, "good.pdf", "bad.pdf"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if out.PerFile()["good.pdf"] != domain.DocumentTypeInvoice {
		t.Fatalf("expected invoice for good.pdf, got %q", out.PerFile()["good.pdf"])
	}
	if out.PerFile()["bad.pdf"] != domain.DocumentTypeUnknown {
		t.Fatalf("expected unknown for bad.pdf, got %q", out.PerFile()["bad.pdf"])
	}
}

func TestZeroShotClassifierScorerTransportErrorFallsBack(t *testing.T) {
	extractor := &extractorFake{singleText: "some text"}
	scorer := &scorerFake{err: errors.New("connection refused")}
	classifier := NewZeroShotClassifier(extractor, scorer, nil, nil)

	out, err := classifier.Classify(context.Background(), domain.SingleFile("doc.pdf"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !out.IsSingle() || out.Type() != domain.DocumentTypeUnknown {
		t.Fatalf("expected single unknown verdict, got %+v", out)
	}
}

func TestZeroShotClassifierSingleFile(t *testing.T) {
	extractor := &extractorFake{singleText: "DRIVER LICENSE class C"}
	scorer := &scorerFake{result: &domain.ScoringResult{
		Labels: []string{"drivers_license", "invoice", "other", "bank_statement"},
		Scores: []float64{0.7, 0.1, 0.1, 0.1},
	}}
	classifier := NewZeroShotClassifier(extractor, scorer, nil, nil)

	out, err := classifier.Classify(context.Background(), domain.SingleFile("license.jpg"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !out.IsSingle() {
		t.Fatalf("expected single output")
	}
	if out.Type() != domain.DocumentTypeDriversLicense {
		t.Fatalf("expected drivers_license, got %q", out.Type())
	}
	if out.PerFile() != nil {
		t.Fatalf("single output must not expose a mapping")
	}
}

func TestZeroShotClassifierSingleFileExtractionPanicIsContained(t *testing.T) {
	extractor := &extractorFake{panicOn: "broken.png"}
	classifier := NewZeroShotClassifier(extractor, &scorerFake{}, nil, nil)

	out, err := classifier.Classify(context.Background(), domain.SingleFile("broken.png"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if out.Type() != domain.DocumentTypeUnknown {
		t.Fatalf("expected unknown, got %q", out.Type())
	}
}

func TestZeroShotClassifierExpandsDirectoryLazily(t *testing.T) {
	extractor := &extractorFake{
		dirFiles: map[string][]string{"inbox": {"inbox/a.pdf", "inbox/b.pdf"}},
		texts:    domain.ExtractedText{"inbox/a.pdf": "invoice total", "inbox/b.pdf": "statement"},
	}
	scorer := &scorerFake{byText: map[string]*domain.ScoringResult{
		"invoice total": {Labels: []string{"invoice"}, Scores: []float64{0.9}},
		"statement":     {Labels: []string{"bank_statement"}, Scores: []float64{0.9}},
	}}
	classifier := NewZeroShotClassifier(extractor, scorer, nil, nil)

	input := domain.Directory("inbox")
	if extractor.extractAllCalls != 0 {
		t.Fatalf("directory must not be expanded at construction")
	}

	out, err := classifier.Classify(context.Background(), input)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(out.PerFile()) != 2 {
		t.Fatalf("expected 2 verdicts, got %+v", out.PerFile())
	}
	if out.PerFile()["inbox/b.pdf"] != domain.DocumentTypeBankStatement {
		t.Fatalf("unexpected verdicts: %+v", out.PerFile())
	}
	if len(extractor.lastRequest.Paths) != 2 || extractor.lastRequest.Dir != "" {
		t.Fatalf("expected extraction over resolved paths, got %+v", extractor.lastRequest)
	}
}

func TestZeroShotClassifierMissingDirectoryYieldsEmptyBatch(t *testing.T) {
	extractor := &extractorFake{dirFiles: map[string][]string{}}
	classifier := NewZeroShotClassifier(extractor, &scorerFake{}, nil, nil)

	out, err := classifier.Classify(context.Background(), domain.Directory("missing"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if out.IsSingle() || len(out.PerFile()) != 0 {
		t.Fatalf("expected empty batch, got %+v", out)
	}
}

func TestZeroShotClassifierRejectsInvalidInput(t *testing.T) {
	classifier := NewZeroShotClassifier(&extractorFake{}, &scorerFake{}, nil, nil)
	_, err := classifier.Classify(context.Background(), domain.ClassificationInput{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
