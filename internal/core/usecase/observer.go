package usecase

import (
	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

const (
	fallbackResolveFailed   = "resolve_failed"
	fallbackExtractFailed   = "extraction_failed"
	fallbackEmptyText       = "empty_text"
	fallbackScoringFailed   = "scoring_failed"
	fallbackMalformedResult = "malformed_response"
)

type noopObserver struct{}

func (noopObserver) ObserveVerdict(domain.Strategy, domain.DocumentType) {}
func (noopObserver) ObserveFallback(domain.Strategy, string)             {}

func observerOrNoop(observer ports.ClassificationObserver) ports.ClassificationObserver {
	if observer == nil {
		return noopObserver{}
	}
	return observer
}
