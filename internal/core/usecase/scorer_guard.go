package usecase

import (
	"context"
	"sync"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

// SerializedScorer lets concurrent requests share one scorer instance that is
// not safe for concurrent use.
type SerializedScorer struct {
	mu     sync.Mutex
	scorer ports.LabelScorer
}

func NewSerializedScorer(scorer ports.LabelScorer) *SerializedScorer {
	return &SerializedScorer{scorer: scorer}
}

func (s *SerializedScorer) Score(ctx context.Context, text string, candidateLabels []string) (*domain.ScoringResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scorer.Score(ctx, text, candidateLabels)
}
