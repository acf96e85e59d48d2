package usecase

import (
	"errors"
	"fmt"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// selectBestLabel picks the highest-scoring label. Ties go to the first
// occurrence of the maximum.
func selectBestLabel(result *domain.ScoringResult) (domain.DocumentType, float64, error) {
	if result == nil {
		return domain.DocumentTypeUnknown, 0, domain.WrapError(domain.ErrMalformedScoringResponse, "select label", errors.New("empty scoring result"))
	}
	if len(result.Labels) == 0 || len(result.Scores) == 0 {
		return domain.DocumentTypeUnknown, 0, domain.WrapError(domain.ErrMalformedScoringResponse, "select label", errors.New("scoring result is missing labels or scores"))
	}
	if len(result.Labels) != len(result.Scores) {
		return domain.DocumentTypeUnknown, 0, domain.WrapError(
			domain.ErrMalformedScoringResponse,
			"select label",
			fmt.Errorf("labels/scores mismatch: %d/%d", len(result.Labels), len(result.Scores)),
		)
	}

	best := 0
	for i := 1; i < len(result.Scores); i++ {
		if result.Scores[i] > result.Scores[best] {
			best = i
		}
	}

	docType, ok := domain.ParseDocumentType(result.Labels[best])
	if !ok {
		return domain.DocumentTypeUnknown, result.Scores[best], domain.WrapError(
			domain.ErrMalformedScoringResponse,
			"select label",
			fmt.Errorf("label %q is not registered", result.Labels[best]),
		)
	}
	return docType, result.Scores[best], nil
}
