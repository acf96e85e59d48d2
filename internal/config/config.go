package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

const (
	ScorerBackendHF     = "hf"
	ScorerBackendOllama = "ollama"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	Strategy      string `yaml:"classifier_strategy"`
	ScorerBackend string `yaml:"scorer_backend"`

	HFInferenceURL string `yaml:"hf_inference_url"`
	HFModel        string `yaml:"hf_model"`
	HFAPIToken     string `yaml:"hf_api_token"`

	OllamaURL      string `yaml:"ollama_url"`
	OllamaGenModel string `yaml:"ollama_gen_model"`

	ScorerTimeoutSeconds   int  `yaml:"scorer_timeout_seconds"`
	ScorerRetryMaxAttempts int  `yaml:"scorer_retry_max_attempts"`
	ScorerBreakerEnabled   bool `yaml:"scorer_breaker_enabled"`

	TesseractBin   string   `yaml:"tesseract_bin"`
	TesseractLang  string   `yaml:"tesseract_lang"`
	TesseractPSM   int      `yaml:"tesseract_psm"`
	PdftoppmBin    string   `yaml:"pdftoppm_bin"`
	PDFOCRFallback bool     `yaml:"pdf_ocr_fallback"`
	ImageExts      []string `yaml:"image_extensions"`

	AllowedUploadExts []string `yaml:"allowed_upload_extensions"`
	StagingDir        string   `yaml:"staging_dir"`
	MaxUploadMB       int      `yaml:"max_upload_mb"`

	PostgresDSN string `yaml:"postgres_dsn"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	APIRateLimitRPS   float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst int     `yaml:"api_rate_limit_burst"`
	APIMaxConnections int     `yaml:"api_max_connections"`
	APIMaxInFlight    int     `yaml:"api_max_inflight"`
	APIBackpressureMS int     `yaml:"api_backpressure_wait_ms"`

	WorkerMetricsPort string `yaml:"worker_metrics_port"`
}

func Defaults() Config {
	return Config{
		APIPort:  "8080",
		LogLevel: "info",

		Strategy:      string(domain.StrategyZeroShot),
		ScorerBackend: ScorerBackendHF,

		HFInferenceURL: "https://router.huggingface.co/hf-inference/models",
		HFModel:        "MoritzLaurer/deberta-v3-large-zeroshot-v2.0",

		OllamaURL:      "http://localhost:11434",
		OllamaGenModel: "llama3.1:8b",

		ScorerTimeoutSeconds:   60,
		ScorerRetryMaxAttempts: 1,
		ScorerBreakerEnabled:   true,

		TesseractBin:   "tesseract",
		TesseractLang:  "eng",
		PdftoppmBin:    "pdftoppm",
		PDFOCRFallback: false,
		ImageExts:      []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"},

		AllowedUploadExts: []string{".pdf", ".png", ".jpg"},
		StagingDir:        "./data/staging",
		MaxUploadMB:       32,

		NATSSubject: "documents.classify",

		APIRateLimitRPS:   20,
		APIRateLimitBurst: 40,
		APIMaxConnections: 256,
		APIMaxInFlight:    16,
		APIBackpressureMS: 250,

		WorkerMetricsPort: "9090",
	}
}

// Load starts from Defaults, applies the YAML file named by CONFIG_FILE when
// set, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.APIPort = mustEnv("API_PORT", c.APIPort)
	c.LogLevel = mustEnv("LOG_LEVEL", c.LogLevel)

	c.Strategy = mustEnv("CLASSIFIER_STRATEGY", c.Strategy)
	c.ScorerBackend = mustEnv("SCORER_BACKEND", c.ScorerBackend)

	c.HFInferenceURL = mustEnv("HF_INFERENCE_URL", c.HFInferenceURL)
	c.HFModel = mustEnv("HF_MODEL", c.HFModel)
	c.HFAPIToken = mustEnv("HF_API_TOKEN", c.HFAPIToken)

	c.OllamaURL = mustEnv("OLLAMA_URL", c.OllamaURL)
	c.OllamaGenModel = mustEnv("OLLAMA_GEN_MODEL", c.OllamaGenModel)

	c.ScorerTimeoutSeconds = mustEnvInt("SCORER_TIMEOUT_SECONDS", c.ScorerTimeoutSeconds)
	c.ScorerRetryMaxAttempts = mustEnvInt("SCORER_RETRY_MAX_ATTEMPTS", c.ScorerRetryMaxAttempts)
	c.ScorerBreakerEnabled = mustEnvBool("SCORER_BREAKER_ENABLED", c.ScorerBreakerEnabled)

	c.TesseractBin = mustEnv("TESSERACT_BIN", c.TesseractBin)
	c.TesseractLang = mustEnv("TESSERACT_LANG", c.TesseractLang)
	c.TesseractPSM = mustEnvInt("TESSERACT_PSM", c.TesseractPSM)
	c.PdftoppmBin = mustEnv("PDFTOPPM_BIN", c.PdftoppmBin)
	c.PDFOCRFallback = mustEnvBool("PDF_OCR_FALLBACK", c.PDFOCRFallback)
	c.ImageExts = mustEnvList("IMAGE_EXTENSIONS", c.ImageExts)

	c.AllowedUploadExts = mustEnvList("ALLOWED_UPLOAD_EXTENSIONS", c.AllowedUploadExts)
	c.StagingDir = mustEnv("STAGING_DIR", c.StagingDir)
	c.MaxUploadMB = mustEnvInt("MAX_UPLOAD_MB", c.MaxUploadMB)

	c.PostgresDSN = mustEnv("POSTGRES_DSN", c.PostgresDSN)
	c.NATSURL = mustEnv("NATS_URL", c.NATSURL)
	c.NATSSubject = mustEnv("NATS_SUBJECT", c.NATSSubject)

	c.APIRateLimitRPS = mustEnvFloat("API_RATE_LIMIT_RPS", c.APIRateLimitRPS)
	c.APIRateLimitBurst = mustEnvInt("API_RATE_LIMIT_BURST", c.APIRateLimitBurst)
	c.APIMaxConnections = mustEnvInt("API_MAX_CONNECTIONS", c.APIMaxConnections)
	c.APIMaxInFlight = mustEnvInt("API_MAX_INFLIGHT", c.APIMaxInFlight)
	c.APIBackpressureMS = mustEnvInt("API_BACKPRESSURE_WAIT_MS", c.APIBackpressureMS)

	c.WorkerMetricsPort = mustEnv("WORKER_METRICS_PORT", c.WorkerMetricsPort)
}

func (c Config) Validate() error {
	var errs []error
	if _, err := domain.ParseStrategy(c.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("classifier_strategy: %w", err))
	}
	switch c.ScorerBackend {
	case ScorerBackendHF, ScorerBackendOllama:
	default:
		errs = append(errs, fmt.Errorf("scorer_backend must be %q or %q, got %q", ScorerBackendHF, ScorerBackendOllama, c.ScorerBackend))
	}
	if len(c.AllowedUploadExts) == 0 {
		errs = append(errs, errors.New("allowed_upload_extensions must not be empty"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("max_upload_mb must be > 0"))
	}
	if c.ScorerTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("scorer_timeout_seconds must be > 0"))
	}
	if c.APIRateLimitRPS < 0 || c.APIRateLimitBurst < 0 {
		errs = append(errs, errors.New("api rate limit values must be >= 0"))
	}
	if c.APIMaxInFlight < 0 || c.APIBackpressureMS < 0 {
		errs = append(errs, errors.New("api_max_inflight and api_backpressure_wait_ms must be >= 0"))
	}
	if unreadable := c.unreadableUploadExts(); len(unreadable) > 0 {
		errs = append(errs, fmt.Errorf("allowed_upload_extensions %v have no extractor; use .pdf or one of image_extensions", unreadable))
	}
	return errors.Join(errs...)
}

// unreadableUploadExts lists accepted upload extensions that would reach
// neither PDF extraction nor image OCR.
func (c Config) unreadableUploadExts() []string {
	images := c.ImageExts
	if len(images) == 0 {
		images = Defaults().ImageExts
	}
	readable := map[string]struct{}{".pdf": {}}
	for _, ext := range images {
		readable[normalizeExt(ext)] = struct{}{}
	}
	var out []string
	for _, ext := range c.AllowedUploadExts {
		if _, ok := readable[normalizeExt(ext)]; !ok {
			out = append(out, ext)
		}
	}
	return out
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ClassifierStrategy is the validated default strategy.
func (c Config) ClassifierStrategy() domain.Strategy {
	strategy, err := domain.ParseStrategy(c.Strategy)
	if err != nil {
		return domain.StrategyZeroShot
	}
	return strategy
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
