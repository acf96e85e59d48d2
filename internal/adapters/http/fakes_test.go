package httpadapter

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

type uploadsFake struct {
	err      error
	verdict  domain.DocumentType
	received map[string]string
}

func (f *uploadsFake) ClassifyUpload(_ context.Context, upload domain.Upload) (*domain.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := f.read(upload); err != nil {
		return nil, err
	}
	return &domain.UploadResult{
		RequestID: "req-1",
		Strategy:  domain.StrategyZeroShot,
		Output:    domain.SingleResult(f.verdict),
	}, nil
}

func (f *uploadsFake) ClassifyUploads(_ context.Context, uploads []domain.Upload) (*domain.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	perFile := make(map[string]domain.DocumentType, len(uploads))
	for _, upload := range uploads {
		if err := f.read(upload); err != nil {
			return nil, err
		}
		perFile[upload.Filename] = f.verdict
	}
	return &domain.UploadResult{
		RequestID: "req-2",
		Strategy:  domain.StrategyFilename,
		Output:    domain.BatchResult(perFile),
	}, nil
}

func (f *uploadsFake) read(upload domain.Upload) error {
	raw, err := io.ReadAll(upload.Body)
	if err != nil {
		return err
	}
	if f.received == nil {
		f.received = map[string]string{}
	}
	f.received[upload.Filename] = string(raw)
	return nil
}

type jobsFake struct {
	err       error
	directory string
	strategy  domain.Strategy
}

func (f *jobsFake) Enqueue(_ context.Context, directory string, strategy domain.Strategy) (*domain.ClassificationJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.directory = directory
	f.strategy = strategy
	return &domain.ClassificationJob{
		ID:        "job-1",
		Directory: directory,
		Strategy:  strategy,
		CreatedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}, nil
}

type historyFake struct {
	err     error
	records map[string][]domain.ClassificationRecord
}

func (f historyFake) ListByRequestID(_ context.Context, requestID string) ([]domain.ClassificationRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	records := f.records[requestID]
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}
