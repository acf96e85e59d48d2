package tesseract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

type stubRunner struct {
	calls  [][]string
	out    map[string]string
	err    error
	render int
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if s.err != nil {
		return nil, []byte("boom"), s.err
	}
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		for i := 1; i <= s.render; i++ {
			if err := os.WriteFile(prefix+"-"+string(rune('0'+i))+".png", []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}
	return []byte(s.out[filepath.Base(args[0])]), nil, nil
}

func TestRecognizeImageBuildsArgsAndNormalizes(t *testing.T) {
	runner := &stubRunner{out: map[string]string{"scan.png": "INVOICE  \r\n\r\n\r\n\fTotal: 10\n"}}
	ocr := New(Config{Lang: "eng+deu", PSM: 6, TessdataDir: "/tess"}, runner, nil)

	text, err := ocr.RecognizeImage(context.Background(), "/in/scan.png")
	if err != nil {
		t.Fatalf("RecognizeImage() error = %v", err)
	}
	if text != "INVOICE\n\nTotal: 10" {
		t.Fatalf("unexpected text %q", text)
	}
	got := strings.Join(runner.calls[0], " ")
	want := "tesseract /in/scan.png stdout -l eng+deu --psm 6 --tessdata-dir /tess"
	if got != want {
		t.Fatalf("unexpected command %q, want %q", got, want)
	}
}

func TestRecognizeImagePropagatesRunnerError(t *testing.T) {
	ocr := New(Config{}, &stubRunner{err: errors.New("exit status 1")}, nil)

	if _, err := ocr.RecognizeImage(context.Background(), "x.png"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRecognizePDFPagesJoinsPagesAndCleansUp(t *testing.T) {
	runner := &stubRunner{render: 2, out: map[string]string{
		"page-1.png": "first page",
		"page-2.png": "second page",
	}}
	ocr := New(Config{DPI: 150}, runner, nil)

	text, err := ocr.RecognizePDFPages(context.Background(), "/in/scan.pdf")
	if err != nil {
		t.Fatalf("RecognizePDFPages() error = %v", err)
	}
	if text != "first page"+domain.PageSeparator+"second page" {
		t.Fatalf("unexpected text %q", text)
	}

	render := runner.calls[0]
	if render[0] != "pdftoppm" || render[2] != "150" {
		t.Fatalf("unexpected render command %v", render)
	}
	if _, err := os.Stat(filepath.Dir(render[len(render)-1])); !os.IsNotExist(err) {
		t.Fatalf("expected render dir to be removed, stat err = %v", err)
	}
}

func TestRecognizePDFPagesWithoutPages(t *testing.T) {
	ocr := New(Config{}, &stubRunner{}, nil)

	if _, err := ocr.RecognizePDFPages(context.Background(), "/in/empty.pdf"); err == nil {
		t.Fatalf("expected error when no pages are rendered")
	}
}
