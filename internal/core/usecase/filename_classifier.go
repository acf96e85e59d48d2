package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

// filenameRules are applied in order; a later match overwrites an earlier one.
var filenameRules = []struct {
	needle  string
	docType domain.DocumentType
}{
	{needle: "drivers_license", docType: domain.DocumentTypeDriversLicense},
	{needle: "bank_statement", docType: domain.DocumentTypeBankStatement},
	{needle: "invoice", docType: domain.DocumentTypeInvoice},
}

// ClassifyFilename infers a document type from substrings of the lower-cased path.
func ClassifyFilename(path string) domain.DocumentType {
	name := strings.ToLower(path)
	result := domain.DocumentTypeUnknown
	for _, rule := range filenameRules {
		if strings.Contains(name, rule.needle) {
			result = rule.docType
		}
	}
	return result
}

// FilenameClassifier never opens the files it classifies; the resolver is
// only used to list directory inputs.
type FilenameClassifier struct {
	resolver ports.FileResolver
	observer ports.ClassificationObserver
	logger   *slog.Logger
}

func NewFilenameClassifier(resolver ports.FileResolver, observer ports.ClassificationObserver, logger *slog.Logger) *FilenameClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilenameClassifier{
		resolver: resolver,
		observer: observerOrNoop(observer),
		logger:   logger,
	}
}

func (c *FilenameClassifier) Classify(ctx context.Context, input domain.ClassificationInput) (domain.ClassificationOutput, error) {
	if err := input.Validate(); err != nil {
		return domain.ClassificationOutput{}, err
	}

	if input.Kind() == domain.InputSingle {
		docType := c.classify(input.Paths()[0])
		return domain.SingleResult(docType), nil
	}

	files := input.Paths()
	if input.Kind() == domain.InputDirectory {
		if c.resolver == nil {
			return domain.ClassificationOutput{}, domain.WrapError(domain.ErrInvalidInput, "filename classify", errors.New("directory input requires a file resolver"))
		}
		var ok bool
		files, ok = withFallback(c.logger, "resolve files", []string(nil), func() ([]string, error) {
			return c.resolver.ResolveFiles(ctx, domain.ExtractRequest{Dir: input.Dir()})
		})
		if !ok {
			c.observer.ObserveFallback(domain.StrategyFilename, fallbackResolveFailed)
		}
	}

	out := make(map[string]domain.DocumentType, len(files))
	for _, path := range files {
		out[path] = c.classify(path)
	}
	return domain.BatchResult(out), nil
}

func (c *FilenameClassifier) classify(path string) domain.DocumentType {
	docType := ClassifyFilename(path)
	c.logger.Debug("document_classified", "strategy", domain.StrategyFilename, "path", path, "label", docType)
	c.observer.ObserveVerdict(domain.StrategyFilename, docType)
	return docType
}
