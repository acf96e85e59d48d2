package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// FileResolver expands an extraction request into the concrete file list
// without reading file contents.
type FileResolver interface {
	ResolveFiles(ctx context.Context, req domain.ExtractRequest) ([]string, error)
}

// TextExtractor pulls text out of PDF and image files. Errors are not
// contained here; callers decide how to degrade.
type TextExtractor interface {
	FileResolver
	ExtractText(ctx context.Context, path string) (string, error)
	ExtractAll(ctx context.Context, req domain.ExtractRequest) (domain.ExtractedText, error)
}

// ImageOCR turns an image file into text.
type ImageOCR interface {
	RecognizeImage(ctx context.Context, path string) (string, error)
}

// PDFTextExtractor turns a PDF file into text.
type PDFTextExtractor interface {
	ExtractPDF(ctx context.Context, path string) (string, error)
}

// LabelScorer scores a document text against candidate labels.
type LabelScorer interface {
	Score(ctx context.Context, text string, candidateLabels []string) (*domain.ScoringResult, error)
}

// ClassificationStore persists classification verdicts.
type ClassificationStore interface {
	SaveRecords(ctx context.Context, records []domain.ClassificationRecord) error
	ListByRequestID(ctx context.Context, requestID string) ([]domain.ClassificationRecord, error)
}

// StagingArea holds uploaded files on local disk for the lifetime of one request.
type StagingArea interface {
	NewSession(ctx context.Context) (StagingSession, error)
}

type StagingSession interface {
	Save(ctx context.Context, filename string, data io.Reader) (string, error)
	Close() error
}

// JobQueue publishes/consumes directory classification jobs.
type JobQueue interface {
	PublishJob(ctx context.Context, job domain.ClassificationJob) error
	SubscribeJobs(ctx context.Context, handler func(context.Context, domain.ClassificationJob) error) error
}

// ClassificationObserver receives verdict and fallback events for metrics.
type ClassificationObserver interface {
	ObserveVerdict(strategy domain.Strategy, docType domain.DocumentType)
	ObserveFallback(strategy domain.Strategy, reason string)
}

// ReportWriter renders an evaluation report.
type ReportWriter interface {
	WriteEvaluation(w io.Writer, report *domain.EvaluationReport) error
}
