package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

// ZeroShotClassifier extracts text from each file and asks a label scorer
// which registered type fits best. It always returns a verdict: extraction
// and scoring failures degrade to UNKNOWN.
type ZeroShotClassifier struct {
	extractor ports.TextExtractor
	scorer    ports.LabelScorer
	observer  ports.ClassificationObserver
	logger    *slog.Logger
}

func NewZeroShotClassifier(
	extractor ports.TextExtractor,
	scorer ports.LabelScorer,
	observer ports.ClassificationObserver,
	logger *slog.Logger,
) *ZeroShotClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ZeroShotClassifier{
		extractor: extractor,
		scorer:    scorer,
		observer:  observerOrNoop(observer),
		logger:    logger,
	}
}

func (c *ZeroShotClassifier) Classify(ctx context.Context, input domain.ClassificationInput) (domain.ClassificationOutput, error) {
	if err := input.Validate(); err != nil {
		return domain.ClassificationOutput{}, err
	}
	if c.extractor == nil || c.scorer == nil {
		return domain.ClassificationOutput{}, domain.WrapError(domain.ErrInvalidInput, "zero-shot classify", errors.New("extractor and scorer are required"))
	}

	if input.Kind() == domain.InputSingle {
		return domain.SingleResult(c.classifySingle(ctx, input.Paths()[0])), nil
	}
	return domain.BatchResult(c.classifyBatch(ctx, input)), nil
}

func (c *ZeroShotClassifier) classifySingle(ctx context.Context, path string) domain.DocumentType {
	c.logger.Info("classification_started", "strategy", domain.StrategyZeroShot, "mode", domain.InputSingle.String(), "path", path)

	text, ok := withFallback(c.logger, "extract text", "", func() (string, error) {
		return c.extractor.ExtractText(ctx, path)
	})
	if !ok {
		return c.fallback(fallbackExtractFailed)
	}
	return c.classifyText(ctx, path, text)
}

func (c *ZeroShotClassifier) classifyBatch(ctx context.Context, input domain.ClassificationInput) map[string]domain.DocumentType {
	files, ok := withFallback(c.logger, "resolve files", []string(nil), func() ([]string, error) {
		return c.extractor.ResolveFiles(ctx, resolveRequest(input))
	})
	if !ok {
		c.observer.ObserveFallback(domain.StrategyZeroShot, fallbackResolveFailed)
		return map[string]domain.DocumentType{}
	}
	c.logger.Info("classification_started", "strategy", domain.StrategyZeroShot, "mode", input.Kind().String(), "files", len(files))

	out := make(map[string]domain.DocumentType, len(files))

	texts, ok := withFallback(c.logger, "extract text", domain.ExtractedText(nil), func() (domain.ExtractedText, error) {
		return c.extractor.ExtractAll(ctx, domain.ExtractRequest{Paths: files})
	})
	if !ok {
		for _, path := range files {
			out[path] = c.fallback(fallbackExtractFailed)
		}
		return out
	}

	for _, path := range files {
		out[path] = c.classifyText(ctx, path, texts[path])
	}
	c.logger.Info("classification_completed", "strategy", domain.StrategyZeroShot, "files", len(out))
	return out
}

func (c *ZeroShotClassifier) classifyText(ctx context.Context, path, text string) domain.DocumentType {
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("no_text_extracted", "path", path)
		return c.fallback(fallbackEmptyText)
	}

	c.logger.Debug("scoring_document", "path", path, "chars", len(text))
	result, ok := withFallback(c.logger, "score labels", (*domain.ScoringResult)(nil), func() (*domain.ScoringResult, error) {
		return c.scorer.Score(ctx, text, domain.CandidateLabels())
	})
	if !ok {
		return c.fallback(fallbackScoringFailed)
	}

	docType, score, err := selectBestLabel(result)
	if err != nil {
		c.logger.Error("malformed_scoring_response", "path", path, "error", err)
		return c.fallback(fallbackMalformedResult)
	}

	c.logger.Info("document_classified", "strategy", domain.StrategyZeroShot, "path", path, "label", docType, "score", score)
	c.observer.ObserveVerdict(domain.StrategyZeroShot, docType)
	return docType
}

func (c *ZeroShotClassifier) fallback(reason string) domain.DocumentType {
	c.observer.ObserveFallback(domain.StrategyZeroShot, reason)
	c.observer.ObserveVerdict(domain.StrategyZeroShot, domain.DocumentTypeUnknown)
	return domain.DocumentTypeUnknown
}

func resolveRequest(input domain.ClassificationInput) domain.ExtractRequest {
	if input.Kind() == domain.InputDirectory {
		return domain.ExtractRequest{Dir: input.Dir()}
	}
	return domain.ExtractRequest{Paths: input.Paths()}
}
