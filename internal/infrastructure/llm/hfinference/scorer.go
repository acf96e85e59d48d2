package hfinference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"
	DefaultModel   = "MoritzLaurer/deberta-v3-large-zeroshot-v2.0"
)

// Scorer calls a hosted zero-shot classification pipeline in single-label
// mode, so the returned scores are normalised across all candidate labels.
type Scorer struct {
	baseURL    string
	model      string
	token      string
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Config struct {
	BaseURL string
	Model   string
	Token   string
	Timeout time.Duration
}

func New(cfg Config, executor *resilience.Executor, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig(), logger)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Scorer{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		executor:   executor,
		logger:     logger,
	}
}

type scoreRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters scoreParameters `json:"parameters"`
}

type scoreParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

// pipelineReply covers both the legacy {sequence, labels, scores} object and
// the newer [{label, score}] list.
type pipelineReply struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (s *Scorer) Score(ctx context.Context, text string, candidateLabels []string) (*domain.ScoringResult, error) {
	if len(candidateLabels) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "hf score", errors.New("candidate labels are required"))
	}
	payload, err := json.Marshal(scoreRequest{
		Inputs:     text,
		Parameters: scoreParameters{CandidateLabels: candidateLabels, MultiLabel: false},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal zero-shot request: %w", err)
	}

	raw, err := resilience.Call(ctx, s.executor, "hf.zero_shot", func(ctx context.Context) (json.RawMessage, error) {
		return s.post(ctx, payload)
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return nil, resilience.WrapTemporary("hf zero-shot", err)
	}

	result, err := decodeReply(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMalformedScoringResponse, "hf zero-shot", err)
	}
	s.logger.Debug("hf_scored", "model", s.model, "labels", len(result.Labels))
	return result, nil
}

func (s *Scorer) post(ctx context.Context, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+s.model, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create zero-shot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hf zero-shot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, resilience.NewHTTPStatusError("hf", "zero-shot", resp)
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode zero-shot response: %w", err)
	}
	return raw, nil
}

func decodeReply(raw json.RawMessage) (*domain.ScoringResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pairs []labelScore
		if err := json.Unmarshal(trimmed, &pairs); err != nil {
			return nil, fmt.Errorf("parse label list: %w", err)
		}
		out := &domain.ScoringResult{
			Labels: make([]string, 0, len(pairs)),
			Scores: make([]float64, 0, len(pairs)),
		}
		for _, p := range pairs {
			out.Labels = append(out.Labels, p.Label)
			out.Scores = append(out.Scores, p.Score)
		}
		return out, nil
	}

	var reply pipelineReply
	if err := json.Unmarshal(trimmed, &reply); err != nil {
		return nil, fmt.Errorf("parse pipeline object: %w", err)
	}
	return &domain.ScoringResult{Labels: reply.Labels, Scores: reply.Scores}, nil
}
