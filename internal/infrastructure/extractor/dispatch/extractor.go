package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

const pdfExtension = ".pdf"

// DefaultImageExtensions are routed to image OCR unless overridden.
var DefaultImageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}

// Extractor routes files to image OCR or PDF text extraction by extension.
type Extractor struct {
	images map[string]struct{}
	ocr    ports.ImageOCR
	pdf    ports.PDFTextExtractor
	logger *slog.Logger
}

func New(ocr ports.ImageOCR, pdf ports.PDFTextExtractor, imageExtensions []string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if len(imageExtensions) == 0 {
		imageExtensions = DefaultImageExtensions
	}
	images := make(map[string]struct{}, len(imageExtensions))
	for _, ext := range imageExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		images[ext] = struct{}{}
	}
	return &Extractor{images: images, ocr: ocr, pdf: pdf, logger: logger}
}

func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.WrapError(domain.ErrNotFound, "extract text", fmt.Errorf("file %q does not exist", path))
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("%q is a directory", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == pdfExtension:
		text, err := e.pdf.ExtractPDF(ctx, path)
		if err != nil {
			return "", fmt.Errorf("extract pdf text %s: %w", path, err)
		}
		return text, nil
	case e.isImage(ext):
		text, err := e.ocr.RecognizeImage(ctx, path)
		if err != nil {
			return "", fmt.Errorf("recognize image %s: %w", path, err)
		}
		return text, nil
	default:
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "extract text", fmt.Errorf("extension %q of %q", ext, path))
	}
}

// ResolveFiles returns explicit paths unchanged or lists the regular files
// directly inside a directory, sorted by name.
func (e *Extractor) ResolveFiles(_ context.Context, req domain.ExtractRequest) ([]string, error) {
	hasPaths := len(req.Paths) > 0
	hasDir := strings.TrimSpace(req.Dir) != ""
	if hasPaths == hasDir {
		return nil, domain.WrapError(domain.ErrInvalidInput, "resolve files", errors.New("exactly one of paths or directory is required"))
	}
	if hasPaths {
		out := make([]string, len(req.Paths))
		copy(out, req.Paths)
		return out, nil
	}

	info, err := os.Stat(req.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "resolve files", fmt.Errorf("directory %q does not exist", req.Dir))
		}
		return nil, fmt.Errorf("stat %s: %w", req.Dir, err)
	}
	if !info.IsDir() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "resolve files", fmt.Errorf("%q is not a directory", req.Dir))
	}

	entries, err := os.ReadDir(req.Dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", req.Dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(req.Dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (e *Extractor) ExtractAll(ctx context.Context, req domain.ExtractRequest) (domain.ExtractedText, error) {
	files, err := e.ResolveFiles(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(domain.ExtractedText, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := e.ExtractText(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", path, err)
		}
		out[path] = text
	}
	e.logger.Debug("texts_extracted", "files", len(out))
	return out, nil
}

func (e *Extractor) isImage(ext string) bool {
	_, ok := e.images[ext]
	return ok
}
