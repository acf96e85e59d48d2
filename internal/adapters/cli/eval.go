package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-classifier/internal/core/usecase"
)

func newEvalCommand(a *app) *cobra.Command {
	var (
		strategy string
		out      string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "eval [dataset-dir]",
		Short: "Measure classification accuracy on a labelled dataset",
		Long: `Evaluates a strategy against a dataset laid out as
<dataset-dir>/<document type>/<files> and prints the accuracy.
With --out the per-file results and the confusion matrix are written to an
XLSX workbook.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(cmd.Context(), func(s *Services) error {
				selected, err := s.strategyOrDefault(strategy)
				if err != nil {
					return err
				}
				classifier, err := s.Classifiers.For(selected)
				if err != nil {
					return err
				}
				if s.Resolver == nil {
					return errors.New("file resolver is not configured")
				}

				evaluator := usecase.NewEvaluateUseCase(classifier, selected, s.Resolver, s.Logger)
				report, err := evaluator.Evaluate(cmd.Context(), args[0], limit)
				if err != nil {
					return fmt.Errorf("evaluate: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "strategy: %s\n", report.Strategy)
				fmt.Fprintf(cmd.OutOrStdout(), "accuracy: %.2f%% (%d/%d)\n", report.Accuracy*100, report.Correct, report.Total)

				if out == "" {
					return nil
				}
				if s.Report == nil {
					return errors.New("report writer is not configured")
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create report: %w", err)
				}
				if err := s.Report.WriteEvaluation(f, report); err != nil {
					_ = f.Close()
					return fmt.Errorf("write report: %w", err)
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report: %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "classification strategy (filename, zero_shot)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write an XLSX report to this path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum files per label (0 = all)")
	return cmd
}
