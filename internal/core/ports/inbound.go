package ports

import (
	"context"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// DocumentClassifier is the inbound contract shared by every classification strategy.
type DocumentClassifier interface {
	Classify(ctx context.Context, input domain.ClassificationInput) (domain.ClassificationOutput, error)
}

// UploadClassifier classifies client uploads staged for one request.
type UploadClassifier interface {
	ClassifyUpload(ctx context.Context, upload domain.Upload) (*domain.UploadResult, error)
	ClassifyUploads(ctx context.Context, uploads []domain.Upload) (*domain.UploadResult, error)
}

// ClassificationHistory is the read model for persisted verdicts.
type ClassificationHistory interface {
	ListByRequestID(ctx context.Context, requestID string) ([]domain.ClassificationRecord, error)
}

// JobScheduler enqueues directory classification jobs.
type JobScheduler interface {
	Enqueue(ctx context.Context, directory string, strategy domain.Strategy) (*domain.ClassificationJob, error)
}

// JobProcessor runs a queued job to completion.
type JobProcessor interface {
	Process(ctx context.Context, job domain.ClassificationJob) error
}
