package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

// Classifiers maps a strategy name to its implementation.
type Classifiers map[domain.Strategy]ports.DocumentClassifier

func (c Classifiers) For(strategy domain.Strategy) (ports.DocumentClassifier, error) {
	classifier, ok := c[strategy]
	if !ok || classifier == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "select classifier", fmt.Errorf("strategy %q is not configured", strategy))
	}
	return classifier, nil
}

func buildRecords(requestID string, strategy domain.Strategy, verdicts map[string]domain.DocumentType, now func() time.Time) []domain.ClassificationRecord {
	createdAt := now().UTC()
	records := make([]domain.ClassificationRecord, 0, len(verdicts))
	for path, docType := range verdicts {
		records = append(records, domain.ClassificationRecord{
			RequestID:    requestID,
			Path:         path,
			DocumentType: docType,
			Strategy:     strategy,
			CreatedAt:    createdAt,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records
}
