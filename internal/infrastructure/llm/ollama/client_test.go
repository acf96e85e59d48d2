package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/infrastructure/resilience"
)

func newTestScorer(url string) *Scorer {
	executor := resilience.NewExecutor(resilience.Config{BreakerEnabled: false}, nil)
	return NewScorer(New(url, "llama3", executor), nil)
}

func TestScorerBuildsPromptAndParsesDistribution(t *testing.T) {
	var capturedPrompt, capturedFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		capturedFormat, _ = payload["format"].(string)
		_, _ = w.Write([]byte(`{"response":"Sure: {\"labels\":[\"invoice\",\"other\"],\"scores\":[0.9,0.1]}"}`))
	}))
	defer server.Close()

	result, err := newTestScorer(server.URL).Score(context.Background(), "Invoice #42", []string{"other", "invoice"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(result.Labels) != 2 || result.Labels[0] != "invoice" || result.Scores[0] != 0.9 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(capturedPrompt, "Invoice #42") || !strings.Contains(capturedPrompt, "other, invoice") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
	if capturedFormat != "json" {
		t.Fatalf("expected json format, got %q", capturedFormat)
	}
}

func TestScorerAcceptsSingleLabelReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"{\"label\":\"bank_statement\"}"}`))
	}))
	defer server.Close()

	result, err := newTestScorer(server.URL).Score(context.Background(), "text", domain.CandidateLabels())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(result.Labels) != 1 || result.Labels[0] != "bank_statement" || result.Scores[0] != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestScorerRejectsNonJSONReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"I think it is an invoice"}`))
	}))
	defer server.Close()

	_, err := newTestScorer(server.URL).Score(context.Background(), "text", domain.CandidateLabels())
	if !domain.IsKind(err, domain.ErrMalformedScoringResponse) {
		t.Fatalf("expected ErrMalformedScoringResponse, got %v", err)
	}
}

func TestScorerIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestScorer(server.URL).Score(context.Background(), "hello", domain.CandidateLabels())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be temporary, got %v", err)
	}
}
