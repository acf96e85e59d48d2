package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig(), nil)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Scorer asks a local generative model to distribute confidence over the
// candidate labels and return it as JSON.
type Scorer struct {
	client *Client
	logger *slog.Logger
}

func NewScorer(client *Client, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{client: client, logger: logger}
}

type scoringReply struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
	Label  string    `json:"label"`
}

func (s *Scorer) Score(ctx context.Context, text string, candidateLabels []string) (*domain.ScoringResult, error) {
	respText, err := s.client.generateJSON(ctx, buildScoringPrompt(text, candidateLabels))
	if err != nil {
		return nil, err
	}

	var reply scoringReply
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &reply); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedScoringResponse, "ollama score", fmt.Errorf("parse scoring json: %w", err))
	}

	// Some models answer with a single label instead of a distribution.
	if len(reply.Labels) == 0 && reply.Label != "" {
		reply.Labels = []string{reply.Label}
		reply.Scores = []float64{1}
	}
	s.logger.Debug("ollama_scored", "model", s.client.genModel, "labels", len(reply.Labels))
	return &domain.ScoringResult{Labels: reply.Labels, Scores: reply.Scores}, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0,
		},
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	err := c.executor.Execute(ctx, "ollama.generate", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", reqBody, &response, "generate")
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return "", resilience.WrapTemporary("ollama generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
