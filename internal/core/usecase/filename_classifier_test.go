package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

func TestClassifyFilename(t *testing.T) {
	cases := []struct {
		path string
		want domain.DocumentType
	}{
		{path: "test_file.pdf", want: domain.DocumentTypeUnknown},
		{path: "files/drivers_license_1.jpg", want: domain.DocumentTypeDriversLicense},
		{path: "files/Bank_Statement_2.pdf", want: domain.DocumentTypeBankStatement},
		{path: "INVOICE-3.png", want: domain.DocumentTypeInvoice},
		{path: "invoice_bank_statement.pdf", want: domain.DocumentTypeInvoice},
		{path: "bank_statement_drivers_license.pdf", want: domain.DocumentTypeBankStatement},
		{path: "drivers_license/invoice.pdf", want: domain.DocumentTypeInvoice},
		{path: "driverslicense.pdf", want: domain.DocumentTypeUnknown},
	}

	for _, tc := range cases {
		if got := ClassifyFilename(tc.path); got != tc.want {
			t.Fatalf("ClassifyFilename(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestFilenameClassifierSingleInput(t *testing.T) {
	classifier := NewFilenameClassifier(nil, nil, nil)

	out, err := classifier.Classify(context.Background(), domain.SingleFile("test_file.pdf"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !out.IsSingle() {
		t.Fatalf("expected single output")
	}
	if out.Type() != domain.DocumentTypeUnknown {
		t.Fatalf("expected unknown, got %q", out.Type())
	}
}

func TestFilenameClassifierBatchCoversEveryPath(t *testing.T) {
	observer := &observerFake{}
	classifier := NewFilenameClassifier(nil, observer, nil)
	input, err := domain.Batch("a/drivers_license.jpg", "b/bank_statement.pdf", "c/invoice.png", "d/other.pdf")
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}

	out, err := classifier.Classify(context.Background(), input)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	perFile := out.PerFile()
	if len(perFile) != 4 {
		t.Fatalf("expected 4 verdicts, got %d", len(perFile))
	}
	if perFile["c/invoice.png"] != domain.DocumentTypeInvoice || perFile["d/other.pdf"] != domain.DocumentTypeUnknown {
		t.Fatalf("unexpected verdicts: %+v", perFile)
	}
	if len(observer.verdicts) != 4 {
		t.Fatalf("expected 4 observed verdicts, got %d", len(observer.verdicts))
	}
}

func TestFilenameClassifierDirectoryUsesResolver(t *testing.T) {
	resolver := &extractorFake{dirFiles: map[string][]string{
		"inbox": {"inbox/invoice_1.pdf", "inbox/scan.png"},
	}}
	classifier := NewFilenameClassifier(resolver, nil, nil)

	out, err := classifier.Classify(context.Background(), domain.Directory("inbox"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got := out.PerFile()["inbox/invoice_1.pdf"]; got != domain.DocumentTypeInvoice {
		t.Fatalf("expected invoice, got %q", got)
	}
	if resolver.extractAllCalls != 0 {
		t.Fatalf("filename strategy must not extract text")
	}
}

func TestFilenameClassifierDirectoryResolveFailureYieldsEmptyBatch(t *testing.T) {
	resolver := &extractorFake{resolveErr: domain.WrapError(domain.ErrNotFound, "resolve", errors.New("missing"))}
	observer := &observerFake{}
	classifier := NewFilenameClassifier(resolver, observer, nil)

	out, err := classifier.Classify(context.Background(), domain.Directory("missing"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if out.IsSingle() || len(out.PerFile()) != 0 {
		t.Fatalf("expected empty batch output, got %+v", out)
	}
	if len(observer.fallbacks) != 1 || observer.fallbacks[0] != fallbackResolveFailed {
		t.Fatalf("expected resolve fallback, got %+v", observer.fallbacks)
	}
}

func TestFilenameClassifierDirectoryWithoutResolver(t *testing.T) {
	classifier := NewFilenameClassifier(nil, nil, nil)
	_, err := classifier.Classify(context.Background(), domain.Directory("inbox"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
