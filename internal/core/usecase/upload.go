package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

// ClassifyUploadUseCase stages client uploads on local disk for the duration
// of one request, classifies them and records the verdicts.
type ClassifyUploadUseCase struct {
	staging    ports.StagingArea
	classifier ports.DocumentClassifier
	strategy   domain.Strategy
	store      ports.ClassificationStore
	allowed    map[string]struct{}
	logger     *slog.Logger
	now        func() time.Time
}

func NewClassifyUploadUseCase(
	staging ports.StagingArea,
	classifier ports.DocumentClassifier,
	strategy domain.Strategy,
	store ports.ClassificationStore,
	allowedExtensions []string,
	logger *slog.Logger,
) *ClassifyUploadUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[normalizeExtension(ext)] = struct{}{}
	}
	return &ClassifyUploadUseCase{
		staging:    staging,
		classifier: classifier,
		strategy:   strategy,
		store:      store,
		allowed:    allowed,
		logger:     logger,
		now:        time.Now,
	}
}

// AllowedFile reports whether the filename carries an allowed extension.
func (uc *ClassifyUploadUseCase) AllowedFile(filename string) bool {
	ext := filepath.Ext(filename)
	if ext == "" {
		return false
	}
	_, ok := uc.allowed[normalizeExtension(ext)]
	return ok
}

func (uc *ClassifyUploadUseCase) ClassifyUpload(ctx context.Context, upload domain.Upload) (*domain.UploadResult, error) {
	if err := uc.validate(upload); err != nil {
		return nil, err
	}

	var result *domain.UploadResult
	err := uc.withSession(ctx, func(session ports.StagingSession) error {
		staged, err := session.Save(ctx, stagedName(0, upload.Filename), upload.Body)
		if err != nil {
			return fmt.Errorf("stage upload: %w", err)
		}

		output, err := uc.classifier.Classify(ctx, domain.SingleFile(staged))
		if err != nil {
			return fmt.Errorf("classify upload: %w", err)
		}
		result = &domain.UploadResult{
			RequestID: uuid.NewString(),
			Strategy:  uc.strategy,
			Output:    domain.SingleResult(output.Type()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, result.RequestID, result.Output.Verdicts(upload.Filename))
	return result, nil
}

func (uc *ClassifyUploadUseCase) ClassifyUploads(ctx context.Context, uploads []domain.Upload) (*domain.UploadResult, error) {
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "classify uploads", errors.New("at least one file is required"))
	}
	seen := make(map[string]struct{}, len(uploads))
	for _, upload := range uploads {
		if err := uc.validate(upload); err != nil {
			return nil, err
		}
		if _, dup := seen[upload.Filename]; dup {
			return nil, domain.WrapError(domain.ErrInvalidInput, "classify uploads", fmt.Errorf("duplicate filename %q", upload.Filename))
		}
		seen[upload.Filename] = struct{}{}
	}

	var result *domain.UploadResult
	err := uc.withSession(ctx, func(session ports.StagingSession) error {
		stagedToOriginal := make(map[string]string, len(uploads))
		paths := make([]string, 0, len(uploads))
		for i, upload := range uploads {
			staged, err := session.Save(ctx, stagedName(i, upload.Filename), upload.Body)
			if err != nil {
				return fmt.Errorf("stage upload %q: %w", upload.Filename, err)
			}
			stagedToOriginal[staged] = upload.Filename
			paths = append(paths, staged)
		}

		input, err := domain.Batch(paths...)
		if err != nil {
			return err
		}
		output, err := uc.classifier.Classify(ctx, input)
		if err != nil {
			return fmt.Errorf("classify uploads: %w", err)
		}

		perFile := make(map[string]domain.DocumentType, len(uploads))
		for staged, original := range stagedToOriginal {
			docType, ok := output.PerFile()[staged]
			if !ok {
				docType = domain.DocumentTypeUnknown
			}
			perFile[original] = docType
		}
		result = &domain.UploadResult{
			RequestID: uuid.NewString(),
			Strategy:  uc.strategy,
			Output:    domain.BatchResult(perFile),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, result.RequestID, result.Output.PerFile())
	return result, nil
}

func (uc *ClassifyUploadUseCase) validate(upload domain.Upload) error {
	if strings.TrimSpace(upload.Filename) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("filename is empty"))
	}
	if upload.Body == nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", fmt.Errorf("file %q has no body", upload.Filename))
	}
	if !uc.AllowedFile(upload.Filename) {
		return domain.WrapError(domain.ErrUnsupportedFormat, "validate upload", fmt.Errorf("file type not allowed: %q", upload.Filename))
	}
	return nil
}

// withSession guarantees the staging session is removed on every exit path.
func (uc *ClassifyUploadUseCase) withSession(ctx context.Context, fn func(ports.StagingSession) error) error {
	session, err := uc.staging.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("open staging session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			uc.logger.Warn("staging_cleanup_failed", "error", closeErr)
		}
	}()
	return fn(session)
}

func (uc *ClassifyUploadUseCase) record(ctx context.Context, requestID string, verdicts map[string]domain.DocumentType) {
	if uc.store == nil || len(verdicts) == 0 {
		return
	}
	records := buildRecords(requestID, uc.strategy, verdicts, uc.now)
	if err := uc.store.SaveRecords(ctx, records); err != nil {
		uc.logger.Warn("classification_history_write_failed", "request_id", requestID, "error", err)
	}
}

func stagedName(index int, filename string) string {
	return fmt.Sprintf("%03d_%s", index, sanitizeFilename(filepath.Base(filename)))
}

// sanitizeFilename keeps the client's name intact apart from characters that
// are unsafe on disk, so filename rules see the same text on staged copies.
func sanitizeFilename(name string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\':
			return '_'
		case r < 0x20, r == 0x7f:
			return '_'
		default:
			return r
		}
	}, name)
	base = strings.TrimLeft(base, ".")
	if strings.TrimSpace(base) == "" {
		return "document.bin"
	}
	return base
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
