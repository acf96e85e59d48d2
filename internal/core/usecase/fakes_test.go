package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

type extractorFake struct {
	texts      domain.ExtractedText
	singleText string
	extractErr error
	resolveErr error
	dirFiles   map[string][]string
	panicOn    string
	failOn     string

	extractAllCalls int
	lastRequest     domain.ExtractRequest
}

func (f *extractorFake) ResolveFiles(_ context.Context, req domain.ExtractRequest) ([]string, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if req.Dir != "" {
		files, ok := f.dirFiles[req.Dir]
		if !ok {
			return nil, domain.WrapError(domain.ErrNotFound, "resolve files", errors.New(req.Dir))
		}
		return files, nil
	}
	return req.Paths, nil
}

func (f *extractorFake) ExtractText(_ context.Context, path string) (string, error) {
	if f.panicOn == path {
		panic("ocr engine crashed")
	}
	if f.extractErr != nil {
		return "", f.extractErr
	}
	if text, ok := f.texts[path]; ok {
		return text, nil
	}
	return f.singleText, nil
}

func (f *extractorFake) ExtractAll(_ context.Context, req domain.ExtractRequest) (domain.ExtractedText, error) {
	f.extractAllCalls++
	f.lastRequest = req
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	for _, path := range req.Paths {
		if path == f.failOn {
			return nil, domain.WrapError(domain.ErrTemporary, "extract", errors.New("corrupt file "+path))
		}
	}
	out := make(domain.ExtractedText, len(req.Paths))
	for _, path := range req.Paths {
		out[path] = f.texts[path]
	}
	return out, nil
}

type scorerFake struct {
	mu       sync.Mutex
	result   *domain.ScoringResult
	byText   map[string]*domain.ScoringResult
	err      error
	calls    int
	lastText string
	labels   []string
}

func (f *scorerFake) Score(_ context.Context, text string, candidateLabels []string) (*domain.ScoringResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastText = text
	f.labels = candidateLabels
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.byText[text]; ok {
		return r, nil
	}
	return f.result, nil
}

type observerFake struct {
	verdicts  []domain.DocumentType
	fallbacks []string
}

func (f *observerFake) ObserveVerdict(_ domain.Strategy, docType domain.DocumentType) {
	f.verdicts = append(f.verdicts, docType)
}

func (f *observerFake) ObserveFallback(_ domain.Strategy, reason string) {
	f.fallbacks = append(f.fallbacks, reason)
}

type storeFake struct {
	records []domain.ClassificationRecord
	err     error
}

func (f *storeFake) SaveRecords(_ context.Context, records []domain.ClassificationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, records...)
	return nil
}

func (f *storeFake) ListByRequestID(_ context.Context, requestID string) ([]domain.ClassificationRecord, error) {
	var out []domain.ClassificationRecord
	for _, r := range f.records {
		if r.RequestID == requestID {
			out = append(out, r)
		}
	}
	return out, nil
}

// stagingFake writes into a real temp dir so tests can assert cleanup.
type stagingFake struct {
	root     string
	sessions []*stagingSessionFake
	err      error
}

func (f *stagingFake) NewSession(context.Context) (ports.StagingSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	dir, err := os.MkdirTemp(f.root, "session-*")
	if err != nil {
		return nil, err
	}
	s := &stagingSessionFake{dir: dir}
	f.sessions = append(f.sessions, s)
	return s, nil
}

type stagingSessionFake struct {
	dir    string
	saved  []string
	closed bool
}

func (s *stagingSessionFake) Save(_ context.Context, filename string, data io.Reader) (string, error) {
	path := filepath.Join(s.dir, filename)
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", err
	}
	s.saved = append(s.saved, path)
	return path, nil
}

func (s *stagingSessionFake) Close() error {
	s.closed = true
	return os.RemoveAll(s.dir)
}

type classifierFake struct {
	output domain.ClassificationOutput
	err    error
	inputs []domain.ClassificationInput
	panic  bool
}

func (f *classifierFake) Classify(_ context.Context, input domain.ClassificationInput) (domain.ClassificationOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.panic {
		panic("classifier exploded")
	}
	if f.err != nil {
		return domain.ClassificationOutput{}, f.err
	}
	return f.output, nil
}

// filenameEchoClassifier classifies by path so batch mappings can be asserted.
type filenameEchoClassifier struct{}

func (filenameEchoClassifier) Classify(_ context.Context, input domain.ClassificationInput) (domain.ClassificationOutput, error) {
	if input.Kind() == domain.InputSingle {
		return domain.SingleResult(ClassifyFilename(input.Paths()[0])), nil
	}
	out := map[string]domain.DocumentType{}
	for _, p := range input.Paths() {
		out[p] = ClassifyFilename(p)
	}
	return domain.BatchResult(out), nil
}

type queueFake struct {
	published []domain.ClassificationJob
	err       error
}

func (f *queueFake) PublishJob(_ context.Context, job domain.ClassificationJob) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, job)
	return nil
}

func (f *queueFake) SubscribeJobs(context.Context, func(context.Context, domain.ClassificationJob) error) error {
	return errors.New("not implemented")
}

func sortedKeys(m map[string]domain.DocumentType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
