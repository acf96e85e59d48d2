package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// PageOCR recognises a scanned PDF page by page.
type PageOCR interface {
	RecognizePDFPages(ctx context.Context, path string) (string, error)
}

// Extractor reads the text layer of a PDF. When the layer is empty and a
// PageOCR is configured, the pages are recognised instead.
type Extractor struct {
	ocr    PageOCR
	logger *slog.Logger
}

func New(ocr PageOCR, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{ocr: ocr, logger: logger}
}

func (e *Extractor) ExtractPDF(ctx context.Context, path string) (string, error) {
	pages, err := readPages(path)
	if err != nil {
		return "", err
	}
	text := strings.Join(pages, domain.PageSeparator)
	if text != "" || e.ocr == nil {
		e.logger.Debug("pdf_text_layer_read", "path", path, "pages", len(pages))
		return text, nil
	}

	e.logger.Info("pdf_ocr_fallback", "path", path)
	return e.ocr.RecognizePDFPages(ctx, path)
}

// readPages returns the trimmed text of every page that has any.
func readPages(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	fonts := make(map[string]*pdf.Font)
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages, nil
}
