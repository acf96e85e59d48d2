package tesseract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

type Config struct {
	Binary      string
	Lang        string
	TessdataDir string
	PSM         int
	OEM         int

	Pdftoppm string
	DPI      int
	MaxPages int
}

// OCR recognises text in images with the tesseract CLI and rasterises
// scanned PDFs with pdftoppm.
type OCR struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, runner Runner, logger *slog.Logger) *OCR {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &OCR{cfg: cfg, runner: runner, logger: logger}
}

func (o *OCR) RecognizeImage(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", o.cfg.Lang}
	if o.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(o.cfg.PSM))
	}
	if o.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(o.cfg.OEM))
	}
	if o.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", o.cfg.TessdataDir)
	}

	out, stderr, err := o.runner.Run(ctx, o.cfg.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", filepath.Base(path), err, strings.TrimSpace(string(stderr)))
	}
	return Normalize(string(out)), nil
}

// RecognizePDFPages renders every page of a PDF to PNG and OCRs each page.
// Pages are joined with a horizontal rule. The render directory is removed
// before returning.
func (o *OCR) RecognizePDFPages(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docclassify-pages-*")
	if err != nil {
		return "", fmt.Errorf("create page dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			o.logger.Warn("page_dir_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, stderr, err := o.runner.Run(ctx, o.cfg.Pdftoppm, "-r", strconv.Itoa(o.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm %s: %w: %s", filepath.Base(path), err, strings.TrimSpace(string(stderr)))
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return "", fmt.Errorf("list rendered pages: %w", err)
	}
	sort.Strings(pages)
	if o.cfg.MaxPages > 0 && len(pages) > o.cfg.MaxPages {
		pages = pages[:o.cfg.MaxPages]
	}
	if len(pages) == 0 {
		return "", errors.New("pdftoppm produced no pages")
	}

	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		text, err := o.RecognizeImage(ctx, page)
		if err != nil {
			o.logger.Warn("page_ocr_failed", "path", path, "page", filepath.Base(page), "error", err)
			continue
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	o.logger.Debug("pdf_pages_recognized", "path", path, "pages", len(pages), "with_text", len(texts))
	return strings.Join(texts, domain.PageSeparator), nil
}

var (
	reTrailingSpace = regexp.MustCompile(`[ \t]+\n`)
	reBlankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings, drops trailing spaces and form feeds and
// collapses runs of blank lines.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reTrailingSpace.ReplaceAllString(s, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
