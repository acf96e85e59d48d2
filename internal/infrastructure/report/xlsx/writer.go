package xlsx

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

const (
	summarySheet   = "Summary"
	samplesSheet   = "Samples"
	confusionSheet = "Confusion"
)

// Writer renders evaluation reports as XLSX workbooks with a summary, one
// row per sample and an expected-by-predicted confusion matrix.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

func (w *Writer) WriteEvaluation(out io.Writer, report *domain.EvaluationReport) error {
	if report == nil {
		return domain.WrapError(domain.ErrInvalidInput, "write evaluation", fmt.Errorf("report is nil"))
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1".
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, sheet := range []string{samplesSheet, confusionSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create %s sheet: %w", sheet, err)
		}
	}

	writeSummary(f, report)
	writeSamples(f, report)
	writeConfusion(f, report)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	w.logger.Info("evaluation_report_written",
		"samples", report.Total,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeSummary(f *excelize.File, report *domain.EvaluationReport) {
	rows := [][]any{
		{"Strategy", string(report.Strategy)},
		{"Generated At", report.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Samples", report.Total},
		{"Correct", report.Correct},
		{"Accuracy", report.Accuracy},
	}
	for i, row := range rows {
		setRow(f, summarySheet, i+1, row...)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth(summarySheet, "B", "B", 28)
}

func writeSamples(f *excelize.File, report *domain.EvaluationReport) {
	setRow(f, samplesSheet, 1, "Path", "Expected", "Predicted", "Correct")
	for i, s := range report.Samples {
		setRow(f, samplesSheet, i+2, s.Path, string(s.Expected), string(s.Predicted), s.Correct())
	}
	_ = f.SetColWidth(samplesSheet, "A", "A", 60)
	_ = f.SetColWidth(samplesSheet, "B", "C", 18)
}

func writeConfusion(f *excelize.File, report *domain.EvaluationReport) {
	types := domain.AllDocumentTypes()
	confusion := report.Confusion()

	header := []any{"expected \\ predicted"}
	for _, t := range types {
		header = append(header, string(t))
	}
	setRow(f, confusionSheet, 1, header...)

	for i, expected := range types {
		row := []any{string(expected)}
		for _, predicted := range types {
			row = append(row, confusion[expected][predicted])
		}
		setRow(f, confusionSheet, i+2, row...)
	}
	_ = f.SetColWidth(confusionSheet, "A", "A", 22)
}

func setRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
