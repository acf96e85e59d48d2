package hfinference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/infrastructure/resilience"
)

func newTestScorer(url string) *Scorer {
	executor := resilience.NewExecutor(resilience.Config{BreakerEnabled: false}, nil)
	return New(Config{BaseURL: url, Model: "org/model", Token: "secret"}, executor, nil)
}

func TestScoreSendsPipelineRequest(t *testing.T) {
	var captured scoreRequest
	var auth, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"sequence":"test text","labels":["bank_statement","drivers_license","other"],"scores":[0.6,0.4,0]}`))
	}))
	defer server.Close()

	result, err := newTestScorer(server.URL).Score(context.Background(), "test text", domain.CandidateLabels())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if result.Labels[0] != "bank_statement" || result.Scores[0] != 0.6 {
		t.Fatalf("unexpected result %+v", result)
	}
	if captured.Inputs != "test text" || len(captured.Parameters.CandidateLabels) != 4 || captured.Parameters.MultiLabel {
		t.Fatalf("unexpected request %+v", captured)
	}
	if auth != "Bearer secret" || path != "/org/model" {
		t.Fatalf("unexpected auth %q or path %q", auth, path)
	}
}

func TestScoreAcceptsLabelList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"invoice","score":0.7},{"label":"other","score":0.3}]`))
	}))
	defer server.Close()

	result, err := newTestScorer(server.URL).Score(context.Background(), "text", domain.CandidateLabels())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(result.Labels) != 2 || result.Labels[0] != "invoice" || result.Scores[1] != 0.3 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestScoreMissingKeysPassThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"scores":[0.4,0.6]}`))
	}))
	defer server.Close()

	result, err := newTestScorer(server.URL).Score(context.Background(), "text", domain.CandidateLabels())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(result.Labels) != 0 || len(result.Scores) != 2 {
		t.Fatalf("expected labels to be missing, got %+v", result)
	}
}

func TestScoreMarksModelLoadingAsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Model is currently loading"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestScorer(server.URL).Score(context.Background(), "text", domain.CandidateLabels())
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestScoreRejectsGarbage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"just a string"`))
	}))
	defer server.Close()

	_, err := newTestScorer(server.URL).Score(context.Background(), "text", domain.CandidateLabels())
	if !domain.IsKind(err, domain.ErrMalformedScoringResponse) {
		t.Fatalf("expected ErrMalformedScoringResponse, got %v", err)
	}
}
