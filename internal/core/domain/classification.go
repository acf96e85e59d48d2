package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

type InputKind int

const (
	InputSingle InputKind = iota + 1
	InputBatch
	InputDirectory
)

func (k InputKind) String() string {
	switch k {
	case InputSingle:
		return "single"
	case InputBatch:
		return "batch"
	case InputDirectory:
		return "directory"
	default:
		return "invalid"
	}
}

// ClassificationInput holds exactly one of: a single path, a non-empty list of
// paths, or a directory whose immediate files are listed at classification time.
type ClassificationInput struct {
	kind  InputKind
	paths []string
	dir   string
}

func SingleFile(path string) ClassificationInput {
	return ClassificationInput{kind: InputSingle, paths: []string{path}}
}

func Batch(paths ...string) (ClassificationInput, error) {
	if len(paths) == 0 {
		return ClassificationInput{}, WrapError(ErrInvalidInput, "batch input", errors.New("at least one file path is required"))
	}
	copied := make([]string, len(paths))
	copy(copied, paths)
	return ClassificationInput{kind: InputBatch, paths: copied}, nil
}

func Directory(dir string) ClassificationInput {
	return ClassificationInput{kind: InputDirectory, dir: dir}
}

func (in ClassificationInput) Kind() InputKind { return in.kind }

// Paths returns the explicit paths of a single or batch input. Directory
// inputs return nil until resolved.
func (in ClassificationInput) Paths() []string {
	if len(in.paths) == 0 {
		return nil
	}
	out := make([]string, len(in.paths))
	copy(out, in.paths)
	return out
}

func (in ClassificationInput) Dir() string { return in.dir }

func (in ClassificationInput) Validate() error {
	switch in.kind {
	case InputSingle:
		if strings.TrimSpace(in.paths[0]) == "" {
			return WrapError(ErrInvalidInput, "single input", errors.New("file path is empty"))
		}
	case InputBatch:
		if len(in.paths) == 0 {
			return WrapError(ErrInvalidInput, "batch input", errors.New("at least one file path is required"))
		}
	case InputDirectory:
		if strings.TrimSpace(in.dir) == "" {
			return WrapError(ErrInvalidInput, "directory input", errors.New("directory path is empty"))
		}
	default:
		return WrapError(ErrInvalidInput, "classification input", fmt.Errorf("unknown input kind %d", in.kind))
	}
	return nil
}

// ClassificationOutput is either a single verdict or a per-file mapping,
// matching the shape of the input that produced it.
type ClassificationOutput struct {
	single  bool
	verdict DocumentType
	perFile map[string]DocumentType
}

func SingleResult(t DocumentType) ClassificationOutput {
	return ClassificationOutput{single: true, verdict: t}
}

func BatchResult(perFile map[string]DocumentType) ClassificationOutput {
	if perFile == nil {
		perFile = map[string]DocumentType{}
	}
	return ClassificationOutput{perFile: perFile}
}

func (o ClassificationOutput) IsSingle() bool { return o.single }

// Type is the verdict of a single-file output.
func (o ClassificationOutput) Type() DocumentType { return o.verdict }

// PerFile is the verdict mapping of a batch output; nil for single outputs.
func (o ClassificationOutput) PerFile() map[string]DocumentType {
	if o.single {
		return nil
	}
	return o.perFile
}

// Verdicts flattens either shape into path -> type; single outputs are keyed by path.
func (o ClassificationOutput) Verdicts(path string) map[string]DocumentType {
	if o.single {
		return map[string]DocumentType{path: o.verdict}
	}
	return o.perFile
}

func (o ClassificationOutput) MarshalJSON() ([]byte, error) {
	if o.single {
		return json.Marshal(struct {
			FileClass DocumentType `json:"file_class"`
		}{FileClass: o.verdict})
	}
	return json.Marshal(struct {
		FileClasses map[string]DocumentType `json:"file_classes"`
	}{FileClasses: o.BatchOrEmpty()})
}

func (o ClassificationOutput) BatchOrEmpty() map[string]DocumentType {
	if o.perFile == nil {
		return map[string]DocumentType{}
	}
	return o.perFile
}

// PageSeparator joins the text of consecutive pages of one document.
const PageSeparator = "\n\n---\n\n"

// ExtractedText maps a file path to the text pulled out of it.
type ExtractedText map[string]string

// ExtractRequest selects files for batch extraction: explicit paths or a
// directory, never both.
type ExtractRequest struct {
	Paths []string
	Dir   string
}

// ScoringResult is the raw response of a label scorer: parallel label and
// confidence sequences.
type ScoringResult struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

type Strategy string

const (
	StrategyFilename Strategy = "filename"
	StrategyZeroShot Strategy = "zero_shot"
)

func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyFilename:
		return StrategyFilename, nil
	case StrategyZeroShot, "zeroshot", "zero-shot":
		return StrategyZeroShot, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse strategy", fmt.Errorf("unknown strategy %q", raw))
	}
}

// ClassificationRecord is one persisted verdict.
type ClassificationRecord struct {
	RequestID    string       `json:"request_id"`
	Path         string       `json:"path"`
	DocumentType DocumentType `json:"document_type"`
	Strategy     Strategy     `json:"strategy"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ClassificationJob asks a worker to classify every file in a directory.
type ClassificationJob struct {
	ID        string    `json:"id"`
	Directory string    `json:"directory"`
	Strategy  Strategy  `json:"strategy"`
	CreatedAt time.Time `json:"created_at"`
}

// Upload is a client-supplied file awaiting classification.
type Upload struct {
	Filename string
	Body     io.Reader
}
