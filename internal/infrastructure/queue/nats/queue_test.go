package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

func TestJobCodecRoundTrip(t *testing.T) {
	job := domain.ClassificationJob{
		ID:        "job-1",
		Directory: "/data/inbox",
		Strategy:  domain.StrategyZeroShot,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	payload, err := encodeJob(job)
	if err != nil {
		t.Fatalf("encodeJob() error = %v", err)
	}
	got, err := decodeJob(payload)
	if err != nil {
		t.Fatalf("decodeJob() error = %v", err)
	}
	if got.ID != job.ID || got.Directory != job.Directory || got.Strategy != job.Strategy || !got.CreatedAt.Equal(job.CreatedAt) {
		t.Fatalf("expected %+v, got %+v", job, got)
	}
}

func TestDecodeJobRejectsInvalidPayloads(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"id":"","directory":"/d","strategy":"filename"}`,
		`{"id":"1","directory":"/d","strategy":"bert"}`,
	} {
		if _, err := decodeJob([]byte(raw)); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("decodeJob(%s) expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected closed connection to be temporary, got %v", err)
	}
	if err := wrapTemporaryIfNeeded(errors.New("bad subject")); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if class := classifyNATSError(context.Canceled); class.RecordFailure {
		t.Fatalf("cancellation must not count against the breaker")
	}
}
