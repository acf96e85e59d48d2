package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

// EvaluateUseCase measures a strategy against a labelled dataset laid out as
// <root>/<document type id>/<files>.
type EvaluateUseCase struct {
	classifier ports.DocumentClassifier
	strategy   domain.Strategy
	resolver   ports.FileResolver
	logger     *slog.Logger
	now        func() time.Time
}

func NewEvaluateUseCase(classifier ports.DocumentClassifier, strategy domain.Strategy, resolver ports.FileResolver, logger *slog.Logger) *EvaluateUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateUseCase{
		classifier: classifier,
		strategy:   strategy,
		resolver:   resolver,
		logger:     logger,
		now:        time.Now,
	}
}

func (uc *EvaluateUseCase) Evaluate(ctx context.Context, datasetDir string, limitPerLabel int) (*domain.EvaluationReport, error) {
	report := &domain.EvaluationReport{Strategy: uc.strategy}

	for _, expected := range domain.AllDocumentTypes() {
		labelDir := filepath.Join(datasetDir, string(expected))
		files, err := uc.resolver.ResolveFiles(ctx, domain.ExtractRequest{Dir: labelDir})
		if err != nil {
			if domain.IsKind(err, domain.ErrNotFound) {
				uc.logger.Debug("evaluation_label_skipped", "label", expected, "dir", labelDir)
				continue
			}
			return nil, fmt.Errorf("list %s samples: %w", expected, err)
		}
		if limitPerLabel > 0 && len(files) > limitPerLabel {
			files = files[:limitPerLabel]
		}
		if len(files) == 0 {
			continue
		}

		// Each sample is scored on its own so one unreadable file cannot
		// drag the rest of its label down with it.
		for _, path := range files {
			input, err := domain.Batch(path)
			if err != nil {
				return nil, err
			}
			output, err := uc.classifier.Classify(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("classify %s sample %s: %w", expected, path, err)
			}
			predicted, ok := output.PerFile()[path]
			if !ok {
				predicted = domain.DocumentTypeUnknown
			}
			report.Samples = append(report.Samples, domain.EvaluationSample{
				Path:      path,
				Expected:  expected,
				Predicted: predicted,
			})
		}
		uc.logger.Info("evaluation_batch", "label", expected, "files", len(files))
	}

	if len(report.Samples) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "evaluate", errors.New("dataset contains no labelled files"))
	}

	for _, sample := range report.Samples {
		if sample.Correct() {
			report.Correct++
		}
	}
	report.Total = len(report.Samples)
	report.Accuracy = float64(report.Correct) / float64(report.Total)
	report.GeneratedAt = uc.now().UTC()

	uc.logger.Info("evaluation_completed", "strategy", uc.strategy, "total", report.Total, "accuracy", report.Accuracy)
	return report, nil
}
