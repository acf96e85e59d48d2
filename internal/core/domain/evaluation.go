package domain

import "time"

// UploadResult is the outcome of classifying staged uploads. Output keys are
// client filenames, never staging paths.
type UploadResult struct {
	RequestID string               `json:"request_id"`
	Strategy  Strategy             `json:"strategy"`
	Output    ClassificationOutput `json:"-"`
}

type EvaluationSample struct {
	Path      string       `json:"path"`
	Expected  DocumentType `json:"expected"`
	Predicted DocumentType `json:"predicted"`
}

func (s EvaluationSample) Correct() bool { return s.Expected == s.Predicted }

type EvaluationReport struct {
	Strategy    Strategy           `json:"strategy"`
	Samples     []EvaluationSample `json:"samples"`
	Total       int                `json:"total"`
	Correct     int                `json:"correct"`
	Accuracy    float64            `json:"accuracy"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Confusion counts predictions per expected type: confusion[expected][predicted].
func (r *EvaluationReport) Confusion() map[DocumentType]map[DocumentType]int {
	out := make(map[DocumentType]map[DocumentType]int, len(registry))
	for _, expected := range registry {
		out[expected] = make(map[DocumentType]int, len(registry))
	}
	for _, s := range r.Samples {
		row, ok := out[s.Expected]
		if !ok {
			row = make(map[DocumentType]int)
			out[s.Expected] = row
		}
		row[s.Predicted]++
	}
	return out
}
