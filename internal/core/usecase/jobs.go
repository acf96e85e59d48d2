package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
)

type EnqueueJobUseCase struct {
	queue       ports.JobQueue
	classifiers Classifiers
	now         func() time.Time
}

func NewEnqueueJobUseCase(queue ports.JobQueue, classifiers Classifiers) *EnqueueJobUseCase {
	return &EnqueueJobUseCase{
		queue:       queue,
		classifiers: classifiers,
		now:         time.Now,
	}
}

func (uc *EnqueueJobUseCase) Enqueue(ctx context.Context, directory string, strategy domain.Strategy) (*domain.ClassificationJob, error) {
	if strings.TrimSpace(directory) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "enqueue job", errors.New("directory is required"))
	}
	if _, err := uc.classifiers.For(strategy); err != nil {
		return nil, err
	}

	job := &domain.ClassificationJob{
		ID:        uuid.NewString(),
		Directory: directory,
		Strategy:  strategy,
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.queue.PublishJob(ctx, *job); err != nil {
		return nil, fmt.Errorf("publish classification job: %w", err)
	}
	return job, nil
}

// ProcessJobUseCase runs queued directory jobs and stores their verdicts
// under the job id.
type ProcessJobUseCase struct {
	classifiers Classifiers
	store       ports.ClassificationStore
	logger      *slog.Logger
	now         func() time.Time
}

func NewProcessJobUseCase(classifiers Classifiers, store ports.ClassificationStore, logger *slog.Logger) *ProcessJobUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessJobUseCase{
		classifiers: classifiers,
		store:       store,
		logger:      logger,
		now:         time.Now,
	}
}

func (uc *ProcessJobUseCase) Process(ctx context.Context, job domain.ClassificationJob) error {
	if strings.TrimSpace(job.ID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "process job", errors.New("job id is required"))
	}
	classifier, err := uc.classifiers.For(job.Strategy)
	if err != nil {
		return err
	}

	start := uc.now()
	output, err := classifier.Classify(ctx, domain.Directory(job.Directory))
	if err != nil {
		return fmt.Errorf("classify job directory: %w", err)
	}

	verdicts := output.PerFile()
	uc.logger.Info("job_classified",
		"job_id", job.ID,
		"directory", job.Directory,
		"strategy", job.Strategy,
		"files", len(verdicts),
		"duration_ms", float64(uc.now().Sub(start).Microseconds())/1000.0,
	)

	if uc.store == nil || len(verdicts) == 0 {
		return nil
	}
	if err := uc.store.SaveRecords(ctx, buildRecords(job.ID, job.Strategy, verdicts, uc.now)); err != nil {
		return fmt.Errorf("save job results: %w", err)
	}
	return nil
}
